// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mlnoga/shadowlight/internal/ops"
	_ "github.com/mlnoga/shadowlight/internal/ops/tonal" // register operators
	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/mlnoga/shadowlight/internal/shadows"
	"github.com/mlnoga/shadowlight/web"
)

// Upper limit for request bodies, i.e. uploaded images and pipeline descriptions
const MaxUploadBytes = 64 << 20

// Creates the router with all API routes. Request logs go to the given writer
func NewRouter(log io.Writer) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(log), gin.Recovery(), limitBody)

	r.GET("/", getIndex)

	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/settings", getSettings)
			v1.GET("/ops", getOps)
			v1.POST("/shadowhighlight", postShadowHighlight)
			v1.POST("/pipeline", postPipeline)
		}
	}
	return r
}

// Listens and serves on the given address until an error occurs
func Serve(addr string, log io.Writer) error {
	fmt.Fprintf(log, "Serving API on %s\n", addr)
	return NewRouter(log).Run(addr)
}

// Caps the request body at MaxUploadBytes
func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	c.Next()
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func getSettings(c *gin.Context) {
	f := shadows.New()
	c.JSON(http.StatusOK, gin.H{
		"config":   f.Config(),
		"settings": f.Settings(),
	})
}

func getOps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": ops.RegisteredTypes()})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Form fields of a shadows/highlights request. Missing values fall back to the defaults
type postShadowHighlightArgs struct {
	Shadows    *float32 `form:"shadows"`
	Highlights *float32 `form:"highlights"`
	Width      *float32 `form:"width"`
	Radius     *float32 `form:"radius"`
	Format     string   `form:"format"`
	Quality    int      `form:"quality"`
}

func (a *postShadowHighlightArgs) config() shadows.Config {
	cfg := shadows.DefaultConfig()
	if a.Shadows != nil {
		cfg.ShadowAmount = *a.Shadows
	}
	if a.Highlights != nil {
		cfg.HighlightAmount = *a.Highlights
	}
	if a.Width != nil {
		cfg.TonalWidth = *a.Width
	}
	if a.Radius != nil {
		cfg.BlurRadius = *a.Radius
	}
	return cfg
}

// Applies the filter to the uploaded multipart field "image" and returns the encoded result
func postShadowHighlight(c *gin.Context) {
	var args postShadowHighlightArgs
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(requestStatus(err), gin.H{"error": err.Error()})
		return
	}
	format := "jpeg"
	if args.Format != "" {
		format = raster.ParseFormat(args.Format)
	}
	if !raster.CanEncode(format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported output format %q", args.Format)})
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(requestStatus(err), gin.H{"error": err.Error()})
		return
	}
	file, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()
	img, err := raster.DecodeChecked(file, raster.ParseFormat(fh.Filename), ops.NewContext(io.Discard).CheckMemory)
	if errors.Is(err, ops.ErrOutOfMemory) {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	} else if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("decoding %s: %s", fh.Filename, err.Error())})
		return
	}

	f := shadows.NewFromConfig(args.config())
	res, err := f.Apply(img)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := res.Encode(&buf, format, args.Quality); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("X-Filter-Settings", f.Settings().String())
	c.Data(http.StatusOK, raster.MIMEType(format), buf.Bytes())
}

// Maps request parsing errors to HTTP status codes
func requestStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// Maps processing errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, raster.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ops.ErrOutOfMemory):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// Runs a JSON operator sequence on files below the working directory, streaming the log as plain text
func postPipeline(c *gin.Context) {
	logWriter := c.Writer
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(requestStatus(err), gin.H{"error": err.Error()})
		return
	}
	seq, err := ops.LoadSequence(bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err := printArgs(logWriter, "Arguments:\n", "\n", seq); err != nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	ctx := ops.NewContext(logWriter)
	ctx.Sandboxed = true
	if _, err := seq.Apply(nil, ctx); err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	logWriter.Flush()
}
