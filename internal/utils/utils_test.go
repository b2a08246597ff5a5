package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content-type and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"key": "value"}
		WriteJSON(w, http.StatusOK, body)

		if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("encodes body as JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"foo": "bar"}
		WriteJSON(w, http.StatusCreated, body)

		var got map[string]string
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if got["foo"] != "bar" {
			t.Errorf("body[foo] = %q; want bar", got["foo"])
		}
	})
}

func TestWriteResults(t *testing.T) {
	t.Run("empty slice stays an array", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteResults(w, http.StatusOK, []int{})

		if got := strings.TrimSpace(w.Body.String()); got != `{"results":[]}` {
			t.Errorf("body = %s; want {\"results\":[]}", got)
		}
	})

	t.Run("only results key", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteResults(w, http.StatusOK, map[string]int{"a": 1})

		var got map[string]json.RawMessage
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if len(got) != 1 || string(got["results"]) != `{"a":1}` {
			t.Errorf("body = %v", got)
		}
	})
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusInternalServerError, CodeServerError, MsgServerError)

	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Code = %d; want %d", w.Code, http.StatusInternalServerError)
	}

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if got["code"] != CodeServerError {
		t.Errorf("code = %q; want %q", got["code"], CodeServerError)
	}
	if got["message"] != MsgServerError {
		t.Errorf("message = %q; want %q", got["message"], MsgServerError)
	}
	if _, ok := got["results"]; ok {
		t.Error("results present in error body")
	}
}

func TestWriteMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteMessage(w, http.StatusMethodNotAllowed, "Method PUT is not allowed!")

	if got := strings.TrimSpace(w.Body.String()); got != `{"message":"Method PUT is not allowed!"}` {
		t.Errorf("body = %s", got)
	}
}

func TestWriteValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteValidationError(w, map[string][]string{"status": {"Status must be either -1, 0, 1!"}})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Code = %d; want 400", w.Code)
	}
	var got struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Results map[string][]string `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if got.Code != CodeValidationError || got.Message != MsgValidationError {
		t.Errorf("code/message = %q/%q", got.Code, got.Message)
	}
	if msgs := got.Results["status"]; len(msgs) != 1 || msgs[0] != "Status must be either -1, 0, 1!" {
		t.Errorf("results = %v", got.Results)
	}
}
