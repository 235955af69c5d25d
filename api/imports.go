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
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	model2 "github.com/fjordsales/salesrecon/api/model"
	"github.com/fjordsales/salesrecon/api/middleware"
	"github.com/fjordsales/salesrecon/internal/apierror"
	"github.com/fjordsales/salesrecon/model"
)

// readUpload returns the bytes and name of the multipart "file" field.
func (a Api) readUpload(c *gin.Context) ([]byte, string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, "", apierror.NewAPIError(apierror.ErrInvalidInput, "file is required", err)
	}
	limit := a.config.Import.MaxUploadBytes
	if header.Size > limit {
		return nil, "", apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("file is larger than %d bytes", limit), nil)
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", apierror.NewAPIError(apierror.ErrInvalidInput, "file could not be read", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", apierror.NewAPIError(apierror.ErrInvalidInput, "file could not be read", err)
	}
	return content, header.Filename, nil
}

// importRequest turns a multipart upload into a job request. A named template
// is fitted to the uploaded file's column count.
func (a Api) importRequest(c *gin.Context) (model.ImportRequest, error) {
	var form model2.ImportForm
	if err := c.ShouldBind(&form); err != nil {
		return model.ImportRequest{}, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}
	if err := form.ValidateImportForm(); err != nil {
		return model.ImportRequest{}, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}

	content, fileName, err := a.readUpload(c)
	if err != nil {
		return model.ImportRequest{}, err
	}

	tenantID := middleware.TenantID(c)
	req, err := form.ToImportRequest(tenantID, fileName, content)
	if err != nil {
		return model.ImportRequest{}, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}

	if name := strings.TrimSpace(form.Template); name != "" {
		preview, err := a.svc.Preview(content, fileName, form.HasHeaderRow)
		if err != nil {
			return model.ImportRequest{}, err
		}
		req.Mapping, err = a.svc.ApplyTemplate(c.Request.Context(), tenantID, name, preview.ColumnCount)
		if err != nil {
			return model.ImportRequest{}, err
		}
	}
	return req, nil
}

func (a Api) PreviewImport(c *gin.Context) {
	var form model2.PreviewForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, fileName, err := a.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := a.svc.Preview(content, fileName, form.HasHeaderRow)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) RunImport(c *gin.Context) {
	req, err := a.importRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := a.svc.RunImport(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) EnqueueImport(c *gin.Context) {
	req, err := a.importRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	taskID, err := a.svc.EnqueueImport(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

func (a Api) GetImport(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.svc.ImportStatus(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
