package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	tradecliDataDir = appDataDir("trade-cli")
	statePath       = filepath.Join(tradecliDataDir, "state.json")

	httpClient = &http.Client{Timeout: 15 * time.Second}
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "trade CLI"
	app.Usage = "Command line interface for the trade service"
	app.Commands = append(
		app.Commands,
		&config,
		&createtrade,
		&accepttrade,
		&declinetrade,
		&gettrade,
		&listtrades,
	)
	return app
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid config state: %w", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(tradecliDataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(tradecliDataDir, os.ModeDir|0755); err != nil {
			return err
		}
	}

	currentData, err := getState()
	if err != nil {
		currentData = map[string]string{}
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

// doRequest calls the trade service and returns the response body. Any non
// 2xx response is turned into an error with the message returned by the
// service.
func doRequest(method, path string, body interface{}) ([]byte, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	server, ok := state["rpcserver"]
	if !ok || server == "" {
		return nil, errors.New("trade service address not set: try 'config init'")
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(buf)
	}

	url := strings.TrimRight(server, "/") + path
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errResp := struct {
			Message string `json:"message"`
		}{}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return nil, fmt.Errorf("%d: %s", resp.StatusCode, errResp.Message)
		}
		return nil, fmt.Errorf("%d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return respBody, nil
}

func printRespJSON(ctx *cli.Context, resp []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, resp, "", "\t"); err != nil {
		fmt.Fprintln(ctx.App.Writer, "unable to decode response: ", err)
		return
	}
	fmt.Fprintln(ctx.App.Writer, out.String())
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[trade-cli] %v\n", err)
	os.Exit(1)
}

func appDataDir(appName string) string {
	if dir := os.Getenv("TRADECLI_DATADIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, "."+appName)
}
