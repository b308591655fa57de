package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nutrimed/internal/apperr"
	"github.com/mmynk/nutrimed/pkg/logging"
)

func TestParseConditions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"repeated fields", []string{"Diabetes", "Heart disease"}, []string{"Diabetes", "Heart disease"}},
		{"comma joined", []string{"Diabetes, Hypertension (High BP)"}, []string{"Diabetes", "Hypertension (High BP)"}},
		{"legacy none option", []string{"None / No current conditions"}, nil},
		{"legacy none any case", []string{"  none / no CURRENT conditions "}, nil},
		{"legacy display strings", []string{"No current medical conditions", "None specified"}, nil},
		{"legacy none inside list", []string{"Diabetes, None / No current conditions"}, []string{"Diabetes"}},
		{"substring of none is kept", []string{"Nonexistent allergy"}, []string{"Nonexistent allergy"}},
		{"blank and duplicate entries", []string{"", " , ", "Diabetes", "diabetes"}, []string{"Diabetes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseConditions(tt.in))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Run("conditions are listed", func(t *testing.T) {
		p := BuildPrompt(Request{Profile: Profile{
			Current:   []string{"Diabetes", "Kidney disease"},
			Concerned: []string{"High cholesterol"},
		}})
		assert.Contains(t, p, "Current conditions: Diabetes, Kidney disease")
		assert.Contains(t, p, "Concerned conditions: High cholesterol")
		assert.Contains(t, p, "DISH:")
		assert.Contains(t, p, "KEY METRICS:")
		assert.NotContains(t, p, "User's description")
	})

	t.Run("empty profile", func(t *testing.T) {
		p := BuildPrompt(Request{})
		assert.Contains(t, p, "Current conditions: none")
		assert.Contains(t, p, "no current conditions")
		assert.Contains(t, p, "no specific concerns")
	})

	t.Run("question is prepended", func(t *testing.T) {
		p := BuildPrompt(Request{Question: "  Is this ok after a workout?  "})
		assert.True(t, strings.HasPrefix(p, "User's description or question:\n\"Is this ok after a workout?\""))
	})
}

func TestNewOpenAIClient_WithoutKeyIsUnconfigured(t *testing.T) {
	a := NewOpenAIClient(OpenAIConfig{APIKey: "  "}, logging.Discard())
	_, err := a.Analyze(context.Background(), Request{Image: []byte{1}})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, apperr.AnalyzerUnavailable, apperr.KindOf(err))
}

func TestOpenAIClient_Analyze(t *testing.T) {
	var got chatRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"DISH:\nGreek salad"}}]}`))
	}))
	defer srv.Close()

	a := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, logging.Discard())
	report, err := a.Analyze(context.Background(), Request{
		Image:    []byte("fake-jpeg"),
		MIMEType: "image/jpeg",
		Profile:  Profile{Current: []string{"Diabetes"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "DISH:\nGreek salad", report)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "text", got.Messages[0].Content[0].Type)
	assert.Contains(t, got.Messages[0].Content[0].Text, "Diabetes")
	require.NotNil(t, got.Messages[0].Content[1].ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,ZmFrZS1qcGVn", got.Messages[0].Content[1].ImageURL.URL)
}

func TestOpenAIClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream 500", http.StatusInternalServerError, `{"error":{"message":"overloaded"}}`},
		{"rate limited", http.StatusTooManyRequests, `{}`},
		{"error object with 200", http.StatusOK, `{"error":{"message":"bad image"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, logging.Discard())
			_, err := a.Analyze(context.Background(), Request{Image: []byte{1, 2, 3}})
			require.Error(t, err)
			assert.Equal(t, apperr.AnalyzerUnavailable, apperr.KindOf(err))
			assert.Equal(t, ErrUnavailable.Msg, apperr.Message(err))
		})
	}
}

func TestOpenAIClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	a := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, logging.Discard())
	_, err := a.Analyze(context.Background(), Request{Image: []byte{1}})
	assert.Equal(t, apperr.AnalyzerUnavailable, apperr.KindOf(err))
}

func TestOpenAIClient_EmptyImage(t *testing.T) {
	a := NewOpenAIClient(OpenAIConfig{APIKey: "k"}, logging.Discard())
	_, err := a.Analyze(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyImage)
}
