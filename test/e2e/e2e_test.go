//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/lautarok/yourstack/internal/model"
)

const defaultBaseURL = "http://localhost:8080/api/v1"

var (
	baseURL   string
	examID    string
	record    model.ExamRecord
	sessionID string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	os.Exit(m.Run())
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestE2EFlow(t *testing.T) {
	// Step 1: Pick the first exam in the catalogue
	t.Run("ListExams", func(t *testing.T) {
		env := call(t, http.MethodGet, "/exams", nil, http.StatusOK)
		var body struct {
			Exams []model.ExamSummary `json:"exams"`
		}
		unmarshal(t, env.Data, &body)
		if len(body.Exams) == 0 {
			t.Fatal("catalogue is empty; seed or configure EXAMS_INDEX")
		}
		examID = body.Exams[0].ID
		t.Logf("Using exam %s", examID)
	})

	// Step 2: Fetch the full record
	t.Run("GetExam", func(t *testing.T) {
		env := call(t, http.MethodGet, "/exams/"+examID, nil, http.StatusOK)
		unmarshal(t, env.Data, &record)
		if len(record.Questions) == 0 {
			t.Fatal("exam has no questions")
		}
	})

	// Step 3: Unknown exams are 404
	t.Run("UnknownExam", func(t *testing.T) {
		env := call(t, http.MethodGet, "/exams/does-not-exist", nil, http.StatusNotFound)
		if env.Error == nil || env.Error.Code != "NOT_FOUND" {
			t.Fatalf("expected NOT_FOUND, got %+v", env.Error)
		}
		call(t, http.MethodPost, "/sessions", map[string]string{"exam_id": "does-not-exist"}, http.StatusNotFound)
	})

	// Step 4: Start a session
	t.Run("CreateSession", func(t *testing.T) {
		env := call(t, http.MethodPost, "/sessions", map[string]string{"exam_id": examID}, http.StatusCreated)
		var state model.SessionState
		unmarshal(t, env.Data, &state)
		if state.Phase != model.PhaseInProgress {
			t.Fatalf("expected in_progress, got %s", state.Phase)
		}
		if state.SecondsRemaining != record.DurationSeconds() {
			t.Fatalf("expected %ds, got %d", record.DurationSeconds(), state.SecondsRemaining)
		}
		sessionID = state.ID
	})

	// Step 5: Answer everything correctly, walking forward
	t.Run("AnswerAll", func(t *testing.T) {
		for i, q := range record.Questions {
			call(t, http.MethodPut, "/sessions/"+sessionID+"/answers",
				map[string]int{"question_id": q.ID, "option_id": q.CorrectAnswerID}, http.StatusOK)
			if i < len(record.Questions)-1 {
				call(t, http.MethodPost, "/sessions/"+sessionID+"/next", nil, http.StatusOK)
			}
		}
		call(t, http.MethodPost, "/sessions/"+sessionID+"/next", nil, http.StatusConflict)
	})

	// Step 6: Submit and read the result
	t.Run("Submit", func(t *testing.T) {
		env := call(t, http.MethodPost, "/sessions/"+sessionID+"/submit", nil, http.StatusOK)
		var res model.Result
		unmarshal(t, env.Data, &res)
		if res.Percentage != 100 || !res.Passed || res.TotalCount != len(record.Questions) {
			t.Fatalf("unexpected result %+v", res)
		}

		env = call(t, http.MethodGet, "/sessions/"+sessionID+"/result", nil, http.StatusOK)
		var again model.Result
		unmarshal(t, env.Data, &again)
		if again.Percentage != res.Percentage || again.CorrectCount != res.CorrectCount {
			t.Fatalf("result changed between reads: %+v vs %+v", again, res)
		}
	})

	// Step 7: Leaving from the first question closes the session
	t.Run("LeaveFromFirstQuestion", func(t *testing.T) {
		env := call(t, http.MethodPost, "/sessions", map[string]string{"exam_id": examID}, http.StatusCreated)
		var state model.SessionState
		unmarshal(t, env.Data, &state)

		call(t, http.MethodPost, "/sessions/"+state.ID+"/previous", nil, http.StatusOK)
		env = call(t, http.MethodGet, "/sessions/"+state.ID, nil, http.StatusNotFound)
		if env.Error == nil || env.Error.Code != "SESSION_NOT_FOUND" {
			t.Fatalf("expected SESSION_NOT_FOUND, got %+v", env.Error)
		}
	})
}

// Helpers

func call(t *testing.T, method, path string, body interface{}, wantStatus int) envelope {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d: %s", method, path, resp.StatusCode, wantStatus, raw)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: %v", method, path, fmt.Errorf("json decode: %w", err))
		}
	}
	return env
}

func unmarshal(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}
