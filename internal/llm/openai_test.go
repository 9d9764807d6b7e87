package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// completionServer answers chat completions with reply and records the
// last request body.
func completionServer(t *testing.T, reply string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&last); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1736300000,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestOpenAIClient_Chat(t *testing.T) {
	t.Setenv("LABGRID_LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	srv, last := completionServer(t, "Monday works.")

	c, err := NewOpenAICompatibleClient(ProviderLMStudio, "test-model", srv.URL)
	if err != nil {
		t.Fatalf("NewOpenAICompatibleClient() error = %v", err)
	}
	got, err := c.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "when?"},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "Monday works." {
		t.Errorf("Chat() = %q", got)
	}

	req := *last
	if req["model"] != "test-model" {
		t.Errorf("model = %v", req["model"])
	}
	msgs, _ := req["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", req["messages"])
	}
	if first, _ := msgs[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first role = %v", first["role"])
	}
}

func TestOpenAIClient_ChatJSON(t *testing.T) {
	srv, _ := completionServer(t, "Sure:\n```json\n{\"sessions\":[{\"day\":\"Tuesday\"}]}\n```")

	c, err := NewOpenAICompatibleClient(ProviderLMStudio, "test-model", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Sessions []struct {
			Day string `json:"day"`
		} `json:"sessions"`
	}
	if err := c.ChatJSON(context.Background(), []Message{{Role: RoleUser, Content: "plan"}}, &out); err != nil {
		t.Fatalf("ChatJSON() error = %v", err)
	}
	if len(out.Sessions) != 1 || out.Sessions[0].Day != "Tuesday" {
		t.Errorf("sessions = %+v", out.Sessions)
	}
}

func TestOpenAIClient_ChatJSONInvalid(t *testing.T) {
	srv, _ := completionServer(t, "no json here")

	c, err := NewOpenAICompatibleClient(ProviderLMStudio, "test-model", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := c.ChatJSON(context.Background(), []Message{{Role: RoleUser, Content: "plan"}}, &out); err == nil {
		t.Fatal("expected parse error")
	}
}
