package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/go-story-kit/pkg/domain"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const valueInputRaw = "RAW"

// SheetsClient は Google スプレッドシートの最初のワークシートを IdeaSource として扱います。
type SheetsClient struct {
	service *sheets.Service
	sheetID string

	mu    sync.Mutex
	title string
}

// NewSheetsClient は ADC（サービスアカウント）で Sheets API クライアントを作成します。
func NewSheetsClient(ctx context.Context, sheetID string, opts ...option.ClientOption) (*SheetsClient, error) {
	if sheetID == "" {
		return nil, fmt.Errorf("スプレッドシートIDは必須です")
	}
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("Sheets クライアントの初期化に失敗しました: %w", err)
	}
	return &SheetsClient{service: service, sheetID: sheetID}, nil
}

// Rows は最初のワークシートの全行を読み出します。
func (c *SheetsClient) Rows(ctx context.Context) ([]domain.IdeaRow, error) {
	title, err := c.firstSheetTitle(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.service.Spreadsheets.Values.Get(c.sheetID, quoteSheetTitle(title)).Context(ctx).Do()
	if err != nil {
		return nil, domain.NewCollaboratorError(domain.CollaboratorSheet, "read rows", err)
	}
	return ParseRows(resp.Values), nil
}

// UpdateStatus は指定行のステータスセル（G列）を書き換えます。
func (c *SheetsClient) UpdateStatus(ctx context.Context, row int, status domain.Status) error {
	title, err := c.firstSheetTitle(ctx)
	if err != nil {
		return err
	}
	cell := CellA1(title, row, domain.StatusColumn)
	vr := &sheets.ValueRange{Values: [][]interface{}{{string(status)}}}
	if _, err := c.service.Spreadsheets.Values.Update(c.sheetID, cell, vr).
		ValueInputOption(valueInputRaw).Context(ctx).Do(); err != nil {
		return domain.NewCollaboratorError(domain.CollaboratorSheet, "update "+cell, err)
	}
	slog.InfoContext(ctx, "Updated status in sheet", "row", row, "status", string(status))
	return nil
}

// firstSheetTitle は最初のワークシート名を一度だけ取得して保持します。
func (c *SheetsClient) firstSheetTitle(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.title != "" {
		return c.title, nil
	}
	ss, err := c.service.Spreadsheets.Get(c.sheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", domain.NewCollaboratorError(domain.CollaboratorSheet, "open spreadsheet", err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", domain.NewCollaboratorError(domain.CollaboratorSheet, "open spreadsheet", domain.ErrEmptyResponse)
	}
	c.title = ss.Sheets[0].Properties.Title
	return c.title, nil
}
