package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/studyhaven/studyhaven-backend/config"
	"github.com/studyhaven/studyhaven-backend/internal/integrations/domain"
	"github.com/studyhaven/studyhaven-backend/internal/upstream"
)

const (
	notionTokenURL = "https://api.notion.com/v1/oauth/token"
	notionVersion  = "2022-06-28"
)

// Notion exchanges authorization codes against the Notion OAuth endpoint,
// which takes a JSON body and client credentials as Basic auth.
type Notion struct {
	cfg      config.OAuthConfig
	tokenURL string
	http     *http.Client
}

type NotionOption func(*Notion)

func WithNotionTokenURL(u string) NotionOption {
	return func(n *Notion) { n.tokenURL = u }
}

func NewNotion(c config.OAuthConfig, opts ...NotionOption) *Notion {
	n := &Notion{cfg: c, tokenURL: notionTokenURL, http: &http.Client{Timeout: 15 * time.Second}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notion) Configured() bool {
	return n.cfg.ClientID != "" && n.cfg.ClientSecret != ""
}

func (n *Notion) Exchange(ctx context.Context, code string) (*domain.NotionGrant, error) {
	payload := map[string]string{
		"grant_type": "authorization_code",
		"code":       code,
	}
	if n.cfg.RedirectURL != "" {
		payload["redirect_uri"] = n.cfg.RedirectURL
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.tokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(n.cfg.ClientID, n.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := n.http.Do(req)
	if err != nil {
		return nil, &upstream.Error{Provider: "notion", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &upstream.Error{Provider: "notion", Status: resp.StatusCode, Message: upstream.Message(resp.Body)}
	}

	var out struct {
		AccessToken   string `json:"access_token"`
		TokenType     string `json:"token_type"`
		BotID         string `json:"bot_id"`
		WorkspaceID   string `json:"workspace_id"`
		WorkspaceName string `json:"workspace_name"`
		WorkspaceIcon string `json:"workspace_icon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.AccessToken == "" {
		return nil, &upstream.Error{Provider: "notion", Status: resp.StatusCode, Message: "response carried no access_token"}
	}
	return &domain.NotionGrant{
		AccessToken:   out.AccessToken,
		TokenType:     out.TokenType,
		BotID:         out.BotID,
		WorkspaceID:   out.WorkspaceID,
		WorkspaceName: out.WorkspaceName,
		WorkspaceIcon: out.WorkspaceIcon,
	}, nil
}
