package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// DeployCmd uploads a plan package to a running server's deploy endpoint.
type DeployCmd struct {
	Plan   string `arg:"" help:"Path to the plan package zip." type:"path"`
	Server string `help:"Base URL of the deployment server." default:"http://localhost:8080"`
}

func (c *DeployCmd) Run(cli *CLI) error {
	f, err := os.Open(c.Plan)
	if err != nil {
		return withCode(exitDeployError, err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("plan", filepath.Base(c.Plan))
	if err != nil {
		return withCode(exitDeployError, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return withCode(exitDeployError, err)
	}
	if err := writer.Close(); err != nil {
		return withCode(exitDeployError, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.Server+"/api/plans/deploy", &body)
	if err != nil {
		return withCode(exitDeployError, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return withCode(exitDeployError, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return withCode(exitDeployError, fmt.Errorf("deploy failed: %s: %s", resp.Status, respBody))
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err == nil {
		fmt.Printf("deployed: %v\n", decoded["plan_id"])
	}
	return nil
}
