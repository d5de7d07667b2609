package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

var (
	// DocumentIDSize matches the length of ids generated by hosted document stores.
	DocumentIDSize = 20
	NanoidSize     = 32
	nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

func NanoID() string {
	return NanoIDSize(NanoidSize)
}

func DocumentID() string {
	return NanoIDSize(DocumentIDSize)
}

func NanoIDSize(size int) string {
	if size <= 0 {
		size = NanoidSize
	}

	return gonanoid.MustGenerate(nanoidAlphabet, size)
}
