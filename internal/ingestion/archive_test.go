package ingestion

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string][]byte, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExpandWorkbooks(t *testing.T) {
	entries := map[string][]byte{
		"preus/lactics.xlsx":      []byte("a"),
		"__MACOSX/._lactics.xlsx": []byte("b"),
		"../escape.xlsx":          []byte("c"),
		"notes.txt":               []byte("d"),
		"preus/begudes.XLSX":      []byte("e"),
		"preus/~$lock.xlsx":       []byte("f"),
	}
	order := []string{"preus/lactics.xlsx", "__MACOSX/._lactics.xlsx", "../escape.xlsx", "notes.txt", "preus/begudes.XLSX", "preus/~$lock.xlsx"}

	workbooks, err := ExpandWorkbooks(context.Background(), buildZip(t, entries, order), DefaultArchiveLimits())
	require.NoError(t, err)
	require.Len(t, workbooks, 2)
	assert.Equal(t, "lactics.xlsx", workbooks[0].Name)
	assert.Equal(t, []byte("a"), workbooks[0].Content)
	assert.Equal(t, "begudes.XLSX", workbooks[1].Name)
}

func TestExpandWorkbooks_Limits(t *testing.T) {
	entries := map[string][]byte{
		"a.xlsx": bytes.Repeat([]byte("x"), 64),
		"b.xlsx": bytes.Repeat([]byte("y"), 64),
	}
	content := buildZip(t, entries, []string{"a.xlsx", "b.xlsx"})

	_, err := ExpandWorkbooks(context.Background(), content, ArchiveLimits{MaxFileSize: 32})
	assert.Error(t, err)

	_, err = ExpandWorkbooks(context.Background(), content, ArchiveLimits{MaxTotalSize: 100})
	assert.Error(t, err)

	_, err = ExpandWorkbooks(context.Background(), content, ArchiveLimits{MaxFiles: 1})
	assert.Error(t, err)

	_, err = ExpandWorkbooks(context.Background(), []byte("not a zip"), DefaultArchiveLimits())
	assert.Error(t, err)
}

func TestSafeEntryName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"dir/file.xlsx", "file.xlsx", false},
		{"dir\\file.xlsx", "file.xlsx", false},
		{"/etc/passwd", "", true},
		{"C:\\Windows\\file.xlsx", "", true},
		{"../../file.xlsx", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safeEntryName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
