// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/lookbook/core"
)

type imageURLRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
}

func (s *Server) aiHealth(c *gin.Context) {
	status := "healthy"
	if !s.embedder.Loaded() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":              status,
		"model_loaded":        s.embedder.Loaded(),
		"model_name":          s.embedder.ModelName(),
		"embedding_dimension": s.embedder.Dimension(),
	})
}

// embedImage generates an embedding for an image URL. For inspection
// only; during ingestion embeddings are produced by the pipeline.
func (s *Server) embedImage(c *gin.Context) {
	var req imageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.embedder.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "embedding model not loaded"})
		return
	}

	img, _, err := s.fetcher.Fetch(c.Request.Context(), req.ImageURL)
	if err != nil {
		s.logger.Warn("failed to fetch image", "url", req.ImageURL, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to fetch image"})
		return
	}

	vector, err := s.embedder.EmbedImage(c.Request.Context(), img)
	if err != nil {
		s.logger.Error("embedding generation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "embedding generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"embedding": vector,
		"dimension": len(vector),
	})
}

// qualityCheck validates the image behind the given URL against the
// quality thresholds without touching the embedding model.
func (s *Server) qualityCheck(c *gin.Context) {
	var req imageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.gate.ValidateFromURL(c.Request.Context(), req.ImageURL)
	if err != nil {
		s.logger.Warn("quality check fetch failed", "url", req.ImageURL, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to fetch image"})
		return
	}

	issues := result.Issues
	if issues == nil {
		issues = []core.QualityIssue{}
	}
	c.JSON(http.StatusOK, gin.H{
		"passed":          result.Passed,
		"issues":          issues,
		"blur_score":      result.BlurScore,
		"width":           result.Width,
		"height":          result.Height,
		"file_size_bytes": result.FileSizeBytes,
	})
}
