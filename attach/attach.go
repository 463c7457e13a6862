// Package attach downloads contact attachments (CVs, portfolios) from the
// CRM into a blob store and records them in the documents table.
package attach

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/talentbridge/crmsync/blob"
	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/crm"
	"github.com/talentbridge/crmsync/load"
)

// cvPatterns identifies CV-like attachment file names. Matching is
// case-insensitive on the lowercased name.
var cvPatterns = []*regexp.Regexp{
	regexp.MustCompile(`.*cv.*\.pdf$`),
	regexp.MustCompile(`.*resume.*\.pdf$`),
	regexp.MustCompile(`.*curriculum.*vitae.*\.pdf$`),
	regexp.MustCompile(`.*bio.*\.pdf$`),
	regexp.MustCompile(`.*profile.*\.pdf$`),
	regexp.MustCompile(`.*portfolio.*\.pdf$`),
}

// attachment is one entry of the CRM's attachment listing.
type attachment struct {
	ID       string `json:"id"`
	FileName string `json:"File_Name"`
	Size     int64  `json:"Size,string"`
}

type attachmentList struct {
	Data []attachment `json:"data"`
}

// Manager fetches and stores contact attachments. Failures are per
// attachment and never abort the sync run.
type Manager struct {
	client *crm.Client
	store  blob.Store
	loader *load.Loader
	logger *slog.Logger
}

// NewManager creates an attachment manager.
func NewManager(client *crm.Client, store blob.Store, loader *load.Loader) *Manager {
	return &Manager{
		client: client,
		store:  store,
		loader: loader,
		logger: slog.Default(),
	}
}

// WithLogger returns a copy of the manager using the given logger.
func (m *Manager) WithLogger(l *slog.Logger) *Manager {
	tmp := *m
	tmp.logger = l
	return &tmp
}

// SyncContact downloads the CV-like attachments of one contact and upserts a
// documents row per stored file. It returns the number of documents stored.
func (m *Manager) SyncContact(ctx context.Context, contactID string) (int, error) {
	attachments, err := m.list(ctx, contactID)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, att := range attachments {
		if !IsCV(att.FileName) {
			continue
		}
		if err := m.download(ctx, contactID, att); err != nil {
			m.logger.Warn("attachment skipped", "contact_id", contactID,
				"file", att.FileName, "error", err)
			continue
		}
		stored++
	}
	return stored, nil
}

// IsCV reports whether the file name looks like a CV or resume.
func IsCV(fileName string) bool {
	name := strings.ToLower(fileName)
	for _, p := range cvPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func (m *Manager) list(ctx context.Context, contactID string) ([]attachment, error) {
	resp, err := m.client.Get(ctx, fmt.Sprintf("/Contacts/%s/Attachments", contactID))
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments of %s: %w", contactID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment listing for %s returned status %d", contactID, resp.StatusCode)
	}

	var list attachmentList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to parse attachment listing: %w", err)
	}
	return list.Data, nil
}

func (m *Manager) download(ctx context.Context, contactID string, att attachment) error {
	resp, err := m.client.Get(ctx, fmt.Sprintf("/Contacts/%s/Attachments/%s", contactID, att.ID))
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	key := fmt.Sprintf("contacts/%s/%s", contactID, att.FileName)
	contentType := resp.Header.Get("Content-Type")
	info, err := m.store.Put(ctx, key, resp.Body, blob.PutOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("store failed: %w", err)
	}

	row := &load.Row{
		Key: att.ID,
		Columns: []string{
			"id", "contact_id", "file_name", "storage_key",
			"mime_type", "size_bytes", "downloaded_at",
		},
		Values: []any{
			att.ID, contactID, att.FileName, key,
			contentType, info.Size, time.Now().UTC(),
		},
	}
	if err := m.loader.UpsertRow(ctx, schema.EntityDocument, row); err != nil {
		return err
	}

	m.logger.Info("attachment stored", "contact_id", contactID,
		"file", att.FileName, "bytes", info.Size)
	return nil
}
