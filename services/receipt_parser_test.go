package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDecodeReceiptAppliesDefaults(t *testing.T) {
	reply := "Sure! Here is the data:\n```json\n" + `{
		"items": [
			{"description": "Walnut board", "unit_price": 12.5},
			{"name": "Glue", "quantity": 2, "price": "$3.25"},
			{"quantity": 3, "total": 9}
		]
	}` + "\n```\nLet me know if you need anything else."

	receipt, err := DecodeReceipt(reply)
	require.NoError(t, err)

	assert.Equal(t, DefaultVendor, receipt.Vendor)
	assert.Equal(t, DefaultCurrency, receipt.Currency)
	assert.Nil(t, receipt.PurchasedAt)
	require.Len(t, receipt.Items, 3)

	assert.Equal(t, ParsedReceiptItem{Description: "Walnut board", Quantity: 1, UnitPrice: 12.5, Total: 12.5}, receipt.Items[0])
	assert.Equal(t, ParsedReceiptItem{Description: "Glue", Quantity: 2, UnitPrice: 3.25, Total: 6.5}, receipt.Items[1])
	assert.Equal(t, ParsedReceiptItem{Description: "Item", Quantity: 3, UnitPrice: 3, Total: 9}, receipt.Items[2])
	assert.Equal(t, 28.0, receipt.Total)
}

func TestDecodeReceiptKeepsExplicitValues(t *testing.T) {
	receipt, err := DecodeReceipt(`{"vendor":"Lee Valley","date":"2025-11-03","currency":"cad","total":41.1,"items":[]}`)
	require.NoError(t, err)

	assert.Equal(t, "Lee Valley", receipt.Vendor)
	assert.Equal(t, "CAD", receipt.Currency)
	assert.Equal(t, 41.1, receipt.Total)
	require.NotNil(t, receipt.PurchasedAt)
	assert.Equal(t, time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), *receipt.PurchasedAt)
	assert.Empty(t, receipt.Items)
}

func TestDecodeReceiptRejectsReplyWithoutJSON(t *testing.T) {
	_, err := DecodeReceipt("I could not read that receipt.")
	assert.ErrorIs(t, err, ErrReceiptNotParsed)

	_, err = DecodeReceipt("{vendor: nope")
	assert.ErrorIs(t, err, ErrReceiptNotParsed)
}

func TestParseImagePrefersVision(t *testing.T) {
	llm := new(mockLLM)
	ocr := new(mockOCR)
	llm.On("DescribeImage", mock.Anything, visionReceiptPrompt, "image/png", []byte("img")).
		Return(`{"vendor":"Hardware Store","total":5}`, nil)

	receipt, err := NewReceiptParser(llm, ocr).Parse(context.Background(), "image/png", []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, ParseMethodVision, receipt.Method)
	assert.Equal(t, "Hardware Store", receipt.Vendor)
	ocr.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestParseImageFallsBackToOCR(t *testing.T) {
	llm := new(mockLLM)
	ocr := new(mockOCR)
	llm.On("DescribeImage", mock.Anything, mock.Anything, "image/jpeg", mock.Anything).
		Return("", errors.New("vision model unavailable"))
	ocr.On("Recognize", mock.Anything, []byte("img")).Return("HARDWARE STORE\nSCREWS 2 @ 1.50", nil)
	llm.On("Complete", mock.Anything, textReceiptSystemPrompt, "HARDWARE STORE\nSCREWS 2 @ 1.50").
		Return(`{"vendor":"Hardware Store","items":[{"description":"Screws","quantity":2,"unit_price":1.5}]}`, nil)

	receipt, err := NewReceiptParser(llm, ocr).Parse(context.Background(), "image/jpeg", []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, ParseMethodOCR, receipt.Method)
	assert.Equal(t, 3.0, receipt.Total)
	assert.Contains(t, receipt.RawText, "SCREWS")
	llm.AssertExpectations(t)
	ocr.AssertExpectations(t)
}

func TestParseImageAllStrategiesFail(t *testing.T) {
	llm := new(mockLLM)
	ocr := new(mockOCR)
	llm.On("DescribeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("no json here", nil)
	ocr.On("Recognize", mock.Anything, mock.Anything).Return("", errors.New("tesseract missing"))

	_, err := NewReceiptParser(llm, ocr).Parse(context.Background(), "image/webp", []byte("img"))
	assert.ErrorIs(t, err, ErrReceiptNotParsed)
	assert.ErrorContains(t, err, "tesseract missing")
}

func TestParseImageWithoutTextIsUnprocessable(t *testing.T) {
	ocr := new(mockOCR)
	ocr.On("Recognize", mock.Anything, mock.Anything).Return("  \n", nil)

	_, err := NewReceiptParser(nil, ocr).Parse(context.Background(), "image/png", []byte("blank"))
	assert.ErrorIs(t, err, ErrNoReceiptText)
}

func TestParsePDFUsesExtractedText(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Complete", mock.Anything, textReceiptSystemPrompt, "Invoice 42\nTotal 19.99").
		Return(`{"vendor":"Online Shop","total":19.99}`, nil)

	parser := NewReceiptParser(llm, nil)
	parser.pdfText = func([]byte) (string, error) { return "Invoice 42\nTotal 19.99", nil }

	receipt, err := parser.Parse(context.Background(), "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, ParseMethodPDF, receipt.Method)
	assert.Equal(t, 19.99, receipt.Total)
	llm.AssertNotCalled(t, "DescribeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestParsePDFWithoutText(t *testing.T) {
	parser := NewReceiptParser(new(mockLLM), nil)
	parser.pdfText = func([]byte) (string, error) { return "", nil }

	_, err := parser.Parse(context.Background(), "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrNoReceiptText)
}

func TestParseRejectsUnsupportedType(t *testing.T) {
	_, err := NewReceiptParser(new(mockLLM), nil).Parse(context.Background(), "text/plain", []byte("hi"))
	assert.ErrorIs(t, err, ErrUnsupportedReceiptType)
}
