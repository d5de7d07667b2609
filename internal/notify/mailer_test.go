package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"selecao/pkg/types"

	mail "github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*mail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func fixtures() (*types.SelectionProcess, *types.Application) {
	return &types.SelectionProcess{ID: "Mestrado 2024", Name: "Mestrado 2024", EndAnalysisDate: "2024-04-10"},
		&types.Application{UID: "uid-1", Name: "Ana", UserEmail: "ana@example.com", Status: types.ApplicationStatusApproved}
}

func TestMailerApplicationStatusChanged(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sender := &fakeSender{}
	m := &Mailer{logger: logger, from: "Seleção <no-reply@example.com>", dialer: sender}

	process, application := fixtures()
	require.NoError(t, m.ApplicationStatusChanged(context.Background(), process, application))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, msg.GetHeader("To"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Aprovado")

	sender.err = errors.New("connection refused")
	err = m.ApplicationStatusChanged(context.Background(), process, application)
	require.ErrorIs(t, err, sender.err)

	application.UserEmail = ""
	sender.err = nil
	require.NoError(t, m.ApplicationStatusChanged(context.Background(), process, application))
	assert.Len(t, sender.sent, 1)
}

func TestNewMailerWithoutSMTP(t *testing.T) {
	logger, hook := test.NewNullLogger()

	n := NewMailer(&types.Config{}, logger)
	require.IsType(t, &LogNotifier{}, n)

	process, application := fixtures()
	require.NoError(t, n.ApplicationStatusChanged(context.Background(), process, application))
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "uid-1", hook.LastEntry().Data["uid"])
}
