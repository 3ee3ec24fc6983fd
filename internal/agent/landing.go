package agent

import (
	"bytes"
	"embed"
	"html/template"

	chainsDomain "github.com/DeganAI/slippage-sentinel/business/chains/domain"
)

//go:embed templates/landing.html
var templateFS embed.FS

var landingTemplate = template.Must(template.ParseFS(templateFS, "templates/landing.html"))

type landingData struct {
	Name         string
	Description  string
	Version      string
	BaseURL      string
	Entrypoint   string
	FreeMode     bool
	Price        string
	Network      string
	PayTo        string
	Facilitators []string
	Chains       []chainsDomain.Chain
}

func (s *Server) renderLanding() ([]byte, error) {
	data := landingData{
		Name:         agentName,
		Description:  agentDescription,
		Version:      s.cfg.App.Version,
		BaseURL:      s.cfg.Server.PublicURL(),
		Entrypoint:   entrypointPath,
		FreeMode:     s.gate.FreeMode(),
		Price:        s.gate.Price().String(),
		Network:      s.cfg.Payment.Network,
		PayTo:        s.cfg.Payment.PayToAddress().Hex(),
		Facilitators: s.cfg.Payment.Facilitators,
		Chains:       s.chains.List(),
	}

	var buf bytes.Buffer
	if err := landingTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
