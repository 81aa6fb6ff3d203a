package services

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// TesseractOCR shells out to the tesseract binary, feeding the image on stdin.
type TesseractOCR struct {
	binary string
}

func NewTesseractOCR(binary string) *TesseractOCR {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractOCR{binary: binary}
}

func (t *TesseractOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(image)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
