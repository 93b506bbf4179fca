package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type sttResponse struct {
	Transcript string `json:"transcript"`
}

// Transcribe uploads recorded audio and returns the transcript. mimeType
// is the container/codec the recorder produced (e.g. "audio/ogg").
func (c *Client) Transcribe(ctx context.Context, audio []byte, fileName, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio is empty")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="%s"`, fileName))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create audio part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	var resp sttResponse
	if err := c.doMultipart(ctx, "/api/v1/audio/stt", &buf, writer.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	return resp.Transcript, nil
}

// Synthesize converts text to speech and returns the audio bytes (MP3)
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text is empty")
	}
	return c.doBytes(ctx, http.MethodPost, "/api/v1/audio/tts", ttsRequest{Text: text, Voice: voice})
}
