/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/fjordsales/salesrecon/api/model"
	"github.com/fjordsales/salesrecon/api/middleware"
)

func (a Api) ListTemplates(c *gin.Context) {
	resp, err := a.svc.ListTemplates(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) SaveTemplate(c *gin.Context) {
	var newTemplate model2.CreateTemplate
	if err := c.ShouldBindJSON(&newTemplate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newTemplate.ValidateCreateTemplate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.svc.SaveTemplate(c.Request.Context(), middleware.TenantID(c), newTemplate.Name, newTemplate.Mapping, newTemplate.ColumnCount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetTemplate(c *gin.Context) {
	resp, err := a.svc.GetTemplate(c.Request.Context(), middleware.TenantID(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) DeleteTemplate(c *gin.Context) {
	if err := a.svc.DeleteTemplate(c.Request.Context(), middleware.TenantID(c), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
}
