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
	"github.com/google/uuid"
)

// login is a placeholder until password authentication lands. Accounts
// are created through the seeder and tokens issued out-of-band.
func (s *Server) login(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "login not implemented"})
}

// me returns the identity of the authenticated caller.
func (s *Server) me(c *gin.Context) {
	userID, ok := c.Get(userIDKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID.(uuid.UUID).String()})
}

// storageHealth probes the object-storage bucket.
func (s *Server) storageHealth(c *gin.Context) {
	if s.objects == nil || !s.objects.Healthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}
