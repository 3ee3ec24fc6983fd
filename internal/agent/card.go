package agent

const (
	agentName        = "Slippage Sentinel"
	agentSlug        = "slippage-sentinel"
	agentDescription = "Estimate safe slippage tolerance for any route to prevent swap reverts. Accounts for pool depth and recent volatility with 95%+ success rate."
	skillDescription = "Estimate safe slippage tolerance with pool depth and volatility analysis"

	entrypointPath = "/entrypoints/" + agentSlug + "/invoke"

	x402Description       = "Estimate safe slippage tolerance for any route with 95%+ success rate"
	entrypointDescription = "Slippage Sentinel - Safe slippage estimation for any route"
	paymentDescription    = "Payment required to access this resource"

	ap2ExtensionURI = "https://github.com/google-agentic-commerce/ap2/tree/v0.1"
	jsonSchemaURI   = "https://json-schema.org/draft/2020-12/schema"
)

type agentCard struct {
	Name                              string                `json:"name"`
	Description                       string                `json:"description"`
	URL                               string                `json:"url"`
	Version                           string                `json:"version"`
	Capabilities                      capabilities          `json:"capabilities"`
	DefaultInputModes                 []string              `json:"defaultInputModes"`
	DefaultOutputModes                []string              `json:"defaultOutputModes"`
	Skills                            []skill               `json:"skills"`
	SupportsAuthenticatedExtendedCard bool                  `json:"supportsAuthenticatedExtendedCard"`
	Entrypoints                       map[string]entrypoint `json:"entrypoints"`
	Payments                          []paymentMethod       `json:"payments"`
}

type capabilities struct {
	Streaming              bool        `json:"streaming"`
	PushNotifications      bool        `json:"pushNotifications"`
	StateTransitionHistory bool        `json:"stateTransitionHistory"`
	Extensions             []extension `json:"extensions"`
}

type extension struct {
	URI         string         `json:"uri"`
	Description string         `json:"description"`
	Required    bool           `json:"required"`
	Params      map[string]any `json:"params"`
}

type skill struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	InputModes   []string   `json:"inputModes"`
	OutputModes  []string   `json:"outputModes"`
	Streaming    bool       `json:"streaming"`
	InputSchema  jsonSchema `json:"x_input_schema"`
	OutputSchema jsonSchema `json:"x_output_schema"`
}

type entrypoint struct {
	Description  string            `json:"description"`
	Streaming    bool              `json:"streaming"`
	InputSchema  jsonSchema        `json:"input_schema"`
	OutputSchema jsonSchema        `json:"output_schema"`
	Pricing      map[string]string `json:"pricing"`
}

type paymentMethod struct {
	Method     string            `json:"method"`
	Payee      string            `json:"payee"`
	Network    string            `json:"network"`
	Endpoint   string            `json:"endpoint,omitempty"`
	PriceModel map[string]string `json:"priceModel"`
	Extensions map[string]any    `json:"extensions,omitempty"`
}

type jsonSchema struct {
	Schema               string                    `json:"$schema"`
	Type                 string                    `json:"type"`
	Properties           map[string]schemaProperty `json:"properties"`
	Required             []string                  `json:"required"`
	AdditionalProperties bool                      `json:"additionalProperties"`
}

type schemaProperty struct {
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type"`
	Items       *schemaProperty `json:"items,omitempty"`
	Minimum     *float64        `json:"minimum,omitempty"`
	Maximum     *float64        `json:"maximum,omitempty"`
}

func ptr(f float64) *float64 { return &f }

func inputSchema() jsonSchema {
	return jsonSchema{
		Schema: jsonSchemaURI,
		Type:   "object",
		Properties: map[string]schemaProperty{
			"token_in":   {Description: "Input token symbol or address", Type: "string"},
			"token_out":  {Description: "Output token symbol or address", Type: "string"},
			"amount_usd": {Description: "Trade size in USD", Type: "number", Minimum: ptr(0)},
			"chain_id":   {Description: "EVM chain id", Type: "integer", Minimum: ptr(1)},
		},
		Required:             []string{"token_in", "token_out", "amount_usd", "chain_id"},
		AdditionalProperties: false,
	}
}

func outputSchema() jsonSchema {
	return jsonSchema{
		Schema: jsonSchemaURI,
		Type:   "object",
		Properties: map[string]schemaProperty{
			"recommended_slippage": {Description: "Recommended tolerance in percent", Type: "number", Maximum: ptr(5)},
			"pool_depth_usd":       {Description: "Assumed pool depth in USD", Type: "number"},
			"success_probability":  {Description: "Expected fill probability", Type: "number"},
			"alternative_routes":   {Description: "Aggregators worth comparing", Type: "array", Items: &schemaProperty{Type: "string"}},
		},
		Required:             []string{"recommended_slippage", "pool_depth_usd", "success_probability", "alternative_routes"},
		AdditionalProperties: false,
	}
}

func (s *Server) agentCard() agentCard {
	price := s.gate.Price()
	pay := s.cfg.Payment

	method := paymentMethod{
		Method:     "x402",
		Payee:      pay.PayToAddress().Hex(),
		Network:    pay.Network,
		PriceModel: map[string]string{"default": price.ToDecimal().String()},
	}
	if len(pay.Facilitators) > 0 {
		method.Endpoint = pay.Facilitators[0]
		method.Extensions = map[string]any{
			"x402": map[string]string{"facilitatorUrl": pay.Facilitators[0]},
		}
	}

	return agentCard{
		Name:        agentName,
		Description: agentDescription,
		URL:         s.cfg.Server.PublicURL() + "/",
		Version:     s.cfg.App.Version,
		Capabilities: capabilities{
			StateTransitionHistory: true,
			Extensions: []extension{{
				URI:         ap2ExtensionURI,
				Description: "Agent Payments Protocol (AP2)",
				Required:    true,
				Params:      map[string]any{"roles": []string{"merchant"}},
			}},
		},
		DefaultInputModes:  []string{"application/json"},
		DefaultOutputModes: []string{"application/json", "text/plain"},
		Skills: []skill{{
			ID:           agentSlug,
			Name:         agentSlug,
			Description:  skillDescription,
			InputModes:   []string{"application/json"},
			OutputModes:  []string{"application/json"},
			InputSchema:  inputSchema(),
			OutputSchema: outputSchema(),
		}},
		Entrypoints: map[string]entrypoint{
			agentSlug: {
				Description:  "Estimate safe slippage tolerance for swap routes",
				InputSchema:  inputSchema(),
				OutputSchema: outputSchema(),
				Pricing:      map[string]string{"invoke": price.String()},
			},
		},
		Payments: []paymentMethod{method},
	}
}
