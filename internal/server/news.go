package server

import (
	"net/http"
	"strings"

	"selecao/internal/utils"
	"selecao/pkg/types"
)

func (s *Service) handleGetProcessNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := s.processes.Process(ctx, id); err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	items, err := s.news.NewsByProcess(ctx, id)
	if err != nil {
		s.handleError(w, r, err, "failed to list news")
		return
	}

	s.writeJSON(w, http.StatusOK, items)
}

func (s *Service) handleGetNewsItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.news.News(r.Context(), r.PathValue("id"), r.PathValue("newsID"))
	if err != nil {
		s.handleError(w, r, err, "failed to fetch news")
		return
	}

	s.writeJSON(w, http.StatusOK, item)
}

func (s *Service) handlePostNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	input, ok := s.decodeNewsInput(w, r, true)
	if !ok {
		return
	}

	if _, err := s.processes.Process(ctx, id); err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	newsID, err := s.news.AddNews(ctx, id, sessionFromContext(ctx).DisplayName, input)
	if err != nil {
		s.handleError(w, r, err, "failed to add news")
		return
	}

	item, err := s.news.News(ctx, id, newsID)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch news")
		return
	}

	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Service) handlePatchNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	newsID := r.PathValue("newsID")

	input, ok := s.decodeNewsInput(w, r, false)
	if !ok {
		return
	}

	if err := s.news.UpdateNews(ctx, id, newsID, input); err != nil {
		s.handleError(w, r, err, "failed to update news")
		return
	}

	item, err := s.news.News(ctx, id, newsID)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch news")
		return
	}

	s.writeJSON(w, http.StatusOK, item)
}

func (s *Service) handleDeleteNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	newsID := r.PathValue("newsID")

	if _, err := s.news.News(ctx, id, newsID); err != nil {
		s.handleError(w, r, err, "failed to fetch news")
		return
	}

	if err := s.news.DeleteNews(ctx, id, newsID); err != nil {
		s.handleError(w, r, err, "failed to delete news")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeNewsInput reads and cleans a news body. Title and body are only
// required when creating.
func (s *Service) decodeNewsInput(w http.ResponseWriter, r *http.Request, creating bool) (*types.NewsInput, bool) {
	var input types.NewsInput
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}

	input.Title = utils.SanitizeInput(input.Title)
	input.Body = utils.SanitizeInput(input.Body)
	input.Date = strings.TrimSpace(input.Date)

	if creating {
		if input.Date == "" {
			input.Date = s.today().Format(types.DateLayout)
		}

		fieldErrs := map[string]string{}
		if input.Title == "" {
			fieldErrs["title"] = "O título é obrigatório."
		}
		if input.Body == "" {
			fieldErrs["body"] = "O texto é obrigatório."
		}
		if len(fieldErrs) > 0 {
			s.validationError(w, r, fieldErrs)
			return nil, false
		}
	}

	return &input, true
}
