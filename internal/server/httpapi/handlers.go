package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) challenge(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		writeError(c, fmt.Errorf("%w: address is required", common.ErrorValidation))
		return
	}
	nonce, err := s.gateway.Challenge(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

type sessionRequest struct {
	Address   string `json:"address" binding:"required"`
	Nonce     string `json:"nonce" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

func (s *HTTPServer) createSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}
	token, err := s.gateway.CreateSession(c.Request.Context(), req.Address, req.Nonce, req.Signature)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *HTTPServer) price(c *gin.Context) {
	size, err := strconv.ParseInt(c.Param("bytes"), 10, 64)
	if err != nil {
		writeError(c, fmt.Errorf("%w: bad size", common.ErrorValidation))
		return
	}
	p, err := s.gateway.Price(size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": p})
}

func (s *HTTPServer) balance(c *gin.Context) {
	acc, err := s.gateway.Balance(c.Request.Context(), sessionAddress(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

type fundRequest struct {
	Amount int64 `json:"amount"`
}

func (s *HTTPServer) fund(c *gin.Context) {
	var req fundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}
	key := c.GetHeader(common.IdempotencyHeaderName)
	if err := s.gateway.Fund(c.Request.Context(), sessionAddress(c), key, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funded": req.Amount})
}

func decodeTags(v string) ([]models.Tag, error) {
	if v == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: tags: %v", common.ErrorValidation, err)
	}
	var tags []models.Tag
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("%w: tags: %v", common.ErrorValidation, err)
	}
	return tags, nil
}

func (s *HTTPServer) store(c *gin.Context) {
	tags, err := decodeTags(c.GetHeader(common.TagsHeaderName))
	if err != nil {
		writeError(c, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize))
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	res, err := s.gateway.Store(c.Request.Context(), sessionAddress(c), data, tags)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": res.ID, "price": res.Price})
}

func (s *HTTPServer) retrieve(c *gin.Context) {
	data, ct, err := s.gateway.Retrieve(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Data(http.StatusOK, ct, data)
}
