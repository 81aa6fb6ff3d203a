package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/rpupo63/portfolio-backend/metrics"
)

const (
	ParseMethodVision = "vision"
	ParseMethodOCR    = "ocr"
	ParseMethodPDF    = "pdf"

	DefaultVendor   = "Unknown vendor"
	DefaultCurrency = "USD"

	// maxReceiptTextRunes bounds the text handed to the text model.
	maxReceiptTextRunes = 12000
)

var (
	ErrUnsupportedReceiptType = errors.New("unsupported receipt file type")
	ErrNoReceiptText          = errors.New("no text could be extracted from the receipt")
	ErrReceiptNotParsed       = errors.New("receipt could not be parsed")
)

const receiptSchema = `{"vendor": string, "date": "YYYY-MM-DD", "currency": "ISO 4217 code", ` +
	`"items": [{"description": string, "quantity": number, "unit_price": number, "total": number}], "total": number}`

const visionReceiptPrompt = "Read this receipt and reply with only a JSON object of the form " + receiptSchema +
	". Use numbers without currency symbols. Omit fields you cannot read."

const textReceiptSystemPrompt = "You turn raw receipt text into structured data. Reply with only a JSON object of the form " +
	receiptSchema + ". Use numbers without currency symbols. Omit fields you cannot determine."

// jsonBlock matches from the first '{' to the last '}' across lines.
var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

var receiptDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"01/02/06",
	"Jan 2, 2006",
	"2 Jan 2006",
}

type ParsedReceiptItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

type ParsedReceipt struct {
	Vendor      string              `json:"vendor"`
	PurchasedAt *time.Time          `json:"purchased_at,omitempty"`
	Currency    string              `json:"currency"`
	Total       float64             `json:"total"`
	Items       []ParsedReceiptItem `json:"items"`
	Method      string              `json:"method"`
	RawText     string              `json:"raw_text,omitempty"`
}

// TextRecognizer extracts printed text from an image.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// ReceiptParser turns an uploaded receipt into line items. Images go to the
// vision model first and fall back to OCR plus the text model; PDFs have their
// text extracted and structured by the text model.
type ReceiptParser struct {
	llm     LLM
	ocr     TextRecognizer
	pdfText func(data []byte) (string, error)
	logger  zerolog.Logger
}

// NewReceiptParser accepts a nil llm or ocr; the matching strategies are skipped.
func NewReceiptParser(llm LLM, ocr TextRecognizer) *ReceiptParser {
	return &ReceiptParser{
		llm:     llm,
		ocr:     ocr,
		pdfText: ExtractPDFText,
		logger:  log.With().Str("service", "receiptParser").Logger(),
	}
}

// Parse dispatches on mimeType, e.g. "image/jpeg" or "application/pdf".
func (p *ReceiptParser) Parse(ctx context.Context, mimeType string, data []byte) (*ParsedReceipt, error) {
	switch {
	case mimeType == "application/pdf":
		return p.parsePDF(ctx, data)
	case strings.HasPrefix(mimeType, "image/"):
		return p.parseImage(ctx, mimeType, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedReceiptType, mimeType)
	}
}

func (p *ReceiptParser) parseImage(ctx context.Context, mimeType string, data []byte) (*ParsedReceipt, error) {
	var failures []string

	if p.llm != nil {
		receipt, err := p.viaVision(ctx, mimeType, data)
		metrics.ObserveReceiptParse(ParseMethodVision, err)
		if err == nil {
			return receipt, nil
		}
		p.logger.Warn().Err(err).Msg("vision parse failed, falling back to OCR")
		failures = append(failures, "vision: "+err.Error())
	}

	if p.ocr != nil {
		text, err := p.ocr.Recognize(ctx, data)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrNoReceiptText
		}
		if err != nil {
			metrics.ObserveReceiptParse(ParseMethodOCR, err)
			if errors.Is(err, ErrNoReceiptText) && len(failures) == 0 {
				return nil, err
			}
			failures = append(failures, "ocr: "+err.Error())
		} else {
			receipt, err := p.structure(ctx, text, ParseMethodOCR)
			metrics.ObserveReceiptParse(ParseMethodOCR, err)
			if err == nil {
				return receipt, nil
			}
			if errors.Is(err, ErrLLMNotConfigured) {
				return nil, err
			}
			failures = append(failures, "ocr: "+err.Error())
		}
	}

	if len(failures) == 0 {
		return nil, ErrLLMNotConfigured
	}
	return nil, fmt.Errorf("%w: %s", ErrReceiptNotParsed, strings.Join(failures, "; "))
}

func (p *ReceiptParser) viaVision(ctx context.Context, mimeType string, data []byte) (*ParsedReceipt, error) {
	reply, err := p.llm.DescribeImage(ctx, visionReceiptPrompt, mimeType, data)
	if err != nil {
		return nil, err
	}
	receipt, err := DecodeReceipt(reply)
	if err != nil {
		return nil, err
	}
	receipt.Method = ParseMethodVision
	return receipt, nil
}

func (p *ReceiptParser) parsePDF(ctx context.Context, data []byte) (*ParsedReceipt, error) {
	text, err := p.pdfText(data)
	if err != nil {
		metrics.ObserveReceiptParse(ParseMethodPDF, err)
		return nil, fmt.Errorf("%w: %v", ErrNoReceiptText, err)
	}
	if strings.TrimSpace(text) == "" {
		metrics.ObserveReceiptParse(ParseMethodPDF, ErrNoReceiptText)
		return nil, ErrNoReceiptText
	}

	receipt, err := p.structure(ctx, text, ParseMethodPDF)
	metrics.ObserveReceiptParse(ParseMethodPDF, err)
	if err != nil {
		if errors.Is(err, ErrLLMNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: pdf: %v", ErrReceiptNotParsed, err)
	}
	return receipt, nil
}

// structure asks the text model to turn extracted text into receipt JSON.
func (p *ReceiptParser) structure(ctx context.Context, text, method string) (*ParsedReceipt, error) {
	if p.llm == nil {
		return nil, ErrLLMNotConfigured
	}

	reply, err := p.llm.Complete(ctx, textReceiptSystemPrompt, truncate(text, maxReceiptTextRunes))
	if err != nil {
		return nil, err
	}
	receipt, err := DecodeReceipt(reply)
	if err != nil {
		return nil, err
	}
	receipt.Method = method
	receipt.RawText = text
	return receipt, nil
}

// DecodeReceipt extracts the first {...} block of a model reply and fills
// defaults for anything missing: vendor "Unknown vendor", currency "USD",
// quantity 1, item total = quantity × unit price and receipt total = sum of
// item totals.
func DecodeReceipt(reply string) (*ParsedReceipt, error) {
	block := jsonBlock.FindString(reply)
	if block == "" {
		return nil, fmt.Errorf("%w: reply contains no JSON object", ErrReceiptNotParsed)
	}
	if !gjson.Valid(block) {
		return nil, fmt.Errorf("%w: reply contains malformed JSON", ErrReceiptNotParsed)
	}
	doc := gjson.Parse(block)

	receipt := &ParsedReceipt{
		Vendor:      stringOr(doc.Get("vendor"), DefaultVendor),
		Currency:    strings.ToUpper(stringOr(doc.Get("currency"), DefaultCurrency)),
		PurchasedAt: parseReceiptDate(doc.Get("date").String()),
		Items:       []ParsedReceiptItem{},
	}

	sum := 0.0
	for _, it := range doc.Get("items").Array() {
		quantity := numberOr(it.Get("quantity"), 1)
		unitPrice := numberOr(it.Get("unit_price"), numberOr(it.Get("price"), 0))
		total := numberOr(it.Get("total"), roundCents(quantity*unitPrice))
		if unitPrice == 0 && total != 0 && quantity != 0 {
			unitPrice = roundCents(total / quantity)
		}

		receipt.Items = append(receipt.Items, ParsedReceiptItem{
			Description: stringOr(it.Get("description"), stringOr(it.Get("name"), "Item")),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Total:       total,
		})
		sum += total
	}
	receipt.Total = numberOr(doc.Get("total"), roundCents(sum))

	return receipt, nil
}

func stringOr(r gjson.Result, fallback string) string {
	if s := strings.TrimSpace(r.String()); s != "" && r.Type != gjson.Null {
		return s
	}
	return fallback
}

// numberOr accepts JSON numbers and numeric strings such as "$1,299.00".
func numberOr(r gjson.Result, fallback float64) float64 {
	switch r.Type {
	case gjson.Number:
		return r.Float()
	case gjson.String:
		cleaned := strings.NewReplacer("$", "", ",", "", "€", "", "£", "").Replace(strings.TrimSpace(r.Str))
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
	}
	return fallback
}

func parseReceiptDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range receiptDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}
