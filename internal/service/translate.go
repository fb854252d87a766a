package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/templui/lanchat/internal/model"
)

var (
	ErrTranslationFailed = errors.New("translation failed")
	ErrEmptyText         = errors.New("text is required")
)

// TranslateService proxies a single translation request to the public
// Google Translate endpoint.
type TranslateService struct {
	client  *http.Client
	baseURL string
}

func NewTranslateService(baseURL string, timeout time.Duration) *TranslateService {
	return &TranslateService{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Translate detects the source language and translates text into
// targetLang. Upstream problems are returned wrapping ErrTranslationFailed;
// bad input returns ErrEmptyText or model.ErrInvalidLanguage.
func (s *TranslateService) Translate(ctx context.Context, text, targetLang string) (*model.Translation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	_, err := model.NormalizeLanguageCode(targetLang)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", targetLang)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("translation upstream error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: upstream returned status %d", ErrTranslationFailed, resp.StatusCode)
	}

	var data []any
	err = json.NewDecoder(resp.Body).Decode(&data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrTranslationFailed, err)
	}

	translated, err := joinSegments(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("translation succeeded", "target_lang", targetLang, "chars", len(text))
	return &model.Translation{
		TranslatedText: translated,
		OriginalText:   text,
		TargetLang:     targetLang,
	}, nil
}

// joinSegments concatenates the translated chunks found at data[0][i][0].
func joinSegments(data []any) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: invalid response format", ErrTranslationFailed)
	}
	segments, ok := data[0].([]any)
	if !ok || len(segments) == 0 {
		return "", fmt.Errorf("%w: invalid response format", ErrTranslationFailed)
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty result", ErrTranslationFailed)
	}
	return b.String(), nil
}
