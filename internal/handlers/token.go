package handlers

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/config"
)

const discordTokenURL = "https://discord.com/api/oauth2/token"

// TokenHandler exchanges the Discord SDK's authorization code for an
// access token. The client secret never reaches the browser.
type TokenHandler struct {
	cfg    *config.Config
	client *http.Client
}

func NewTokenHandler(cfg *config.Config) *TokenHandler {
	return &TokenHandler{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type tokenRequest struct {
	Code string `json:"code" binding:"required"`
}

// Exchange godoc
// @Summary      Exchange a Discord OAuth2 authorization code for a token
// @Tags         auth
// @Accept       json
// @Router       /api/token [post]
func (h *TokenHandler) Exchange(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "code is required"})
		return
	}

	form := url.Values{
		"client_id":     {h.cfg.DiscordClientID},
		"client_secret": {h.cfg.DiscordClientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {req.Code},
	}

	resp, err := h.client.Post(discordTokenURL, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("token exchange failed: %v", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "token exchange failed"})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "token exchange failed"})
		return
	}
	c.Data(resp.StatusCode, "application/json", body)
}
