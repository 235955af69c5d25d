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
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/fjordsales/salesrecon"
	"github.com/fjordsales/salesrecon/api/middleware"
	"github.com/fjordsales/salesrecon/config"
	"github.com/fjordsales/salesrecon/internal/apierror"
)

type Api struct {
	svc    *salesrecon.SalesRecon
	router *gin.Engine
	config *config.Configuration
}

func (a Api) Router() *gin.Engine {
	router := a.router

	tenant := router.Group("/", middleware.TenantMiddleware())
	tenant.POST("/imports/preview", a.PreviewImport)
	tenant.POST("/imports", a.RunImport)
	tenant.POST("/imports/async", a.EnqueueImport)
	tenant.GET("/imports/:id", a.GetImport)

	tenant.GET("/templates", a.ListTemplates)
	tenant.POST("/templates", a.SaveTemplate)
	tenant.GET("/templates/:name", a.GetTemplate)
	tenant.DELETE("/templates/:name", a.DeleteTemplate)

	return a.router
}

func NewAPI(svc *salesrecon.SalesRecon) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(conf.ProjectName))
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{svc: svc, router: r, config: conf}
}

// respondError writes err with the status its code maps to. Only the
// caller-safe message of an APIError is sent.
func respondError(c *gin.Context, err error) {
	message := err.Error()
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Message
	}
	c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": message})
}
