// Package ai completes partially-extracted PEAK rows with an OpenAI chat
// completion. The filler is an optional collaborator: when disabled, keyless,
// or failing for any reason it returns an empty patch and the pipeline
// continues on rule-based values alone.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/peaklab/peak-importer/internal/peak"
)

// Config controls the OpenAI call.
type Config struct {
	Enabled      bool
	APIKey       string
	Model        string
	Temperature  float32
	MaxTextChars int // document text budget; oversized text is head+tail truncated
}

// DefaultConfig returns the production call parameters.
func DefaultConfig() Config {
	return Config{
		Model:        "gpt-4o-mini",
		Temperature:  0,
		MaxTextChars: 22000,
	}
}

// Filler asks the model to fill missing PEAK fields.
type Filler struct {
	client *openai.Client
	cfg    Config
	logger *zap.Logger
}

// NewFiller creates a Filler. A disabled config or empty API key yields a
// no-op filler whose Fill always returns an empty patch.
func NewFiller(cfg Config, logger *zap.Logger) *Filler {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = DefaultConfig().MaxTextChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Filler{cfg: cfg, logger: logger}
	if cfg.Enabled && cfg.APIKey != "" {
		f.client = openai.NewClient(cfg.APIKey)
	}
	return f
}

// Enabled reports whether the filler will actually call the model.
func (f *Filler) Enabled() bool {
	return f.client != nil
}

const systemPrompt = `You are a meticulous Thai accounting document extraction engine.
Return STRICT JSON ONLY (a single JSON object, no markdown).
Fill missing fields of a PEAK import row from the document text.
Rules:
- All values are strings. Use "" when unknown; never invent values.
- Normalize every date to YYYYMMDD (convert Buddhist-era years by subtracting 543).
- J_price_type: "1" = VAT separated, "2" = VAT included, "3" = no VAT.
- For amounts prefer the total including VAT; strip commas and currency symbols.
- Never output the withholding-tax column.
Also include "_ai_confidence" (0.0-1.0 as a string) and "_ai_notes".`

// groupDictionary steers U_group towards the fixed accounting categories.
var groupDictionary = map[string]string{
	"Lazada/Shopee/TikTok fees": "Marketplace Expense",
	"Commission":                "Selling Expense",
	"Advertising":               "Advertising Expense",
	"Goods purchase":            "Inventory / COGS",
	"Shipping/Logistics":        "Shipping Expense",
}

// Fill requests a patch for the row. The returned map holds only canonical
// column keys with non-empty values; the withholding column is never present.
// Any failure returns an empty map.
func (f *Filler) Fill(ctx context.Context, text, platformHint string, partial map[string]string, filename string) map[string]string {
	if f.client == nil {
		return map[string]string{}
	}

	req := openai.ChatCompletionRequest{
		Model:       f.cfg.Model,
		Temperature: f.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: f.buildUserPrompt(text, platformHint, partial, filename)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := f.client.CreateChatCompletion(ctx, req)
	if err != nil {
		f.logger.Warn("AI fill request failed", zap.String("file", filename), zap.Error(err))
		return map[string]string{}
	}
	if len(resp.Choices) == 0 {
		f.logger.Warn("AI fill returned no choices", zap.String("file", filename))
		return map[string]string{}
	}

	patch := parsePatch(resp.Choices[0].Message.Content)
	if patch == nil {
		f.logger.Warn("AI fill returned unparseable content", zap.String("file", filename))
		return map[string]string{}
	}

	if conf, ok := patch["_ai_confidence"]; ok {
		f.logger.Debug("AI fill completed",
			zap.String("file", filename),
			zap.String("confidence", conf),
			zap.String("notes", patch["_ai_notes"]))
	}

	return cleanPatch(patch)
}

// buildUserPrompt packages the document and the partial row for the model.
func (f *Filler) buildUserPrompt(text, platformHint string, partial map[string]string, filename string) string {
	keys := PatchableKeys()
	row := make(map[string]string, len(keys))
	for _, k := range keys {
		row[k] = partial[k]
	}
	partialJSON, _ := json.Marshal(row)
	groupsJSON, _ := json.Marshal(groupDictionary)

	var b strings.Builder
	fmt.Fprintf(&b, "SOURCE_FILE: %s\n", filename)
	fmt.Fprintf(&b, "PLATFORM_HINT: %s\n", platformHint)
	fmt.Fprintf(&b, "REQUIRED_SCHEMA_KEYS: %s\n", strings.Join(keys, ", "))
	fmt.Fprintf(&b, "GROUP_DICTIONARY: %s\n", groupsJSON)
	fmt.Fprintf(&b, "PARTIAL_ROW_JSON: %s\n", partialJSON)
	b.WriteString("DOCUMENT_TEXT:\n")
	b.WriteString(truncate(text, f.cfg.MaxTextChars))
	return b.String()
}

// truncate keeps the head and tail of oversized text; totals blocks and
// withholding remarks usually sit near one end.
func truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	head := max * 2 / 3
	tail := max - head
	return string(r[:head]) + "\n...\n" + string(r[len(r)-tail:])
}

// PatchableKeys lists the columns the model may fill: everything except the
// sequence, company tag, and the withholding column.
func PatchableKeys() []string {
	keys := make([]string, 0, len(peak.Columns))
	for _, c := range peak.Columns {
		switch c.Key {
		case peak.ColSeq, peak.ColCompanyName, peak.ColWHT:
			continue
		}
		keys = append(keys, c.Key)
	}
	sort.Strings(keys)
	return keys
}

// parsePatch unmarshals the model output, falling back to brace-matching
// extraction when the response wraps the JSON in prose.
func parsePatch(content string) map[string]string {
	if m := unmarshalStringMap(content); m != nil {
		return m
	}
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return nil
	}
	end := matchBrace(content, start)
	if end <= start {
		return nil
	}
	return unmarshalStringMap(content[start:end])
}

func unmarshalStringMap(s string) map[string]string {
	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			out[k] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", t), "0"), ".")
		case bool:
			out[k] = fmt.Sprintf("%t", t)
		}
	}
	return out
}

// matchBrace returns the index one past the brace matching content[start].
func matchBrace(content string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
	}
	return -1
}

var patchable = func() map[string]bool {
	m := make(map[string]bool)
	for _, k := range PatchableKeys() {
		m[k] = true
	}
	return m
}()

// cleanPatch keeps only canonical patchable keys with non-empty values.
func cleanPatch(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" || !patchable[k] {
			continue
		}
		out[k] = v
	}
	return out
}
