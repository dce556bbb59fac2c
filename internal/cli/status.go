// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/transport"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the chat API is reachable",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	statusCmd.SilenceUsage = true
}

// statusReport is what status prints.
type statusReport struct {
	APIURL     string `json:"api_url"`
	Reachable  bool   `json:"reachable"`
	Greeting   string `json:"greeting,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
	SessionID  string `json:"session_id"`
	Backend    string `json:"session_backend"`
	ConfigFile string `json:"config_file"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	rep := statusReport{
		APIURL:     a.Client.BaseURL(),
		SessionID:  a.Session.ID(),
		Backend:    a.Config.Session.Backend,
		ConfigFile: configFilePath(),
	}

	start := time.Now()
	greeting, herr := a.Client.Hello(cmd.Context())
	rep.LatencyMS = time.Since(start).Milliseconds()
	if herr != nil {
		rep.Error = transport.ErrorMessage(herr)
	} else {
		rep.Reachable = true
		rep.Greeting = greeting
	}

	return OutputJSON(a.Out, statusJSON, "status", func() (any, error) {
		if !statusJSON {
			printStatus(a, rep)
		}
		if herr != nil {
			return rep, NewCommandError("status", "probe", herr)
		}
		return rep, nil
	})
}

func printStatus(a *App, rep statusReport) {
	fmt.Fprintln(a.Out, TitleStyle.Render("chatdeck status"))
	api := RenderStatus("ok") + " " + rep.APIURL + DimStyle.Render(fmt.Sprintf(" (%d ms)", rep.LatencyMS))
	if !rep.Reachable {
		api = RenderStatus("fail") + " " + rep.APIURL + " " + ErrorStyle.Render(rep.Error)
	}
	fmt.Fprintln(a.Out, RenderLabel("API")+api)

	session := DimStyle.Render("none")
	if rep.SessionID != "" {
		session = ValueStyle.Render(rep.SessionID)
	}
	fmt.Fprintln(a.Out, RenderLabel("Session")+session+DimStyle.Render(" ("+rep.Backend+")"))
	fmt.Fprintln(a.Out, RenderLabel("Config")+ValueStyle.Render(rep.ConfigFile))
}
