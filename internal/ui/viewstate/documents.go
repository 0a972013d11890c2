package viewstate

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
)

// MergeDocuments вливает документ в набор: совпадение сначала по id,
// затем по типу, иначе документ добавляется в конец. Исходный срез
// не меняется.
func MergeDocuments(docs []model.Document, incoming model.Document) []model.Document {
	out := append([]model.Document(nil), docs...)

	if incoming.ID != "" {
		for i, d := range out {
			if d.ID == incoming.ID {
				out[i] = incoming
				return out
			}
		}
	}
	if incoming.Type != "" {
		for i, d := range out {
			if d.Type == incoming.Type {
				out[i] = incoming
				return out
			}
		}
	}
	return append(out, incoming)
}

// Виды предпросмотра документа.
const (
	PreviewImage    = "image"
	PreviewPDF      = "pdf"
	PreviewDownload = "download"
)

// Preview — документ, разобранный для показа в браузере.
type Preview struct {
	// Kind — PreviewImage, PreviewPDF или PreviewDownload.
	Kind string
	// MIME — тип содержимого ответа.
	MIME string
	// Data — декодированное содержимое файла.
	Data []byte
	// Filename — имя файла для скачивания.
	Filename string
}

// ResolvePreview разбирает содержимое документа. Поле fichierBase64
// может быть как data:-URL, так и голым base64; MIME берётся из
// data:-URL, иначе выводится из типа документа и расширения имени.
func ResolvePreview(doc model.Document) (*Preview, error) {
	raw := strings.TrimSpace(doc.FichierBase64)
	if raw == "" {
		return nil, fmt.Errorf("документ %q без содержимого", doc.Type)
	}

	var mime string
	if strings.HasPrefix(raw, "data:") {
		meta, payload, ok := strings.Cut(raw[len("data:"):], ",")
		if !ok {
			return nil, fmt.Errorf("некорректный data-URL документа %q", doc.Type)
		}
		mime, _, _ = strings.Cut(meta, ";")
		raw = payload
	}

	data, err := decodeBase64(raw)
	if err != nil {
		return nil, fmt.Errorf("декодирование документа %q: %w", doc.Type, err)
	}

	if mime == "" {
		mime = inferMIME(doc)
	}

	return &Preview{
		Kind:     previewKind(mime),
		MIME:     mime,
		Data:     data,
		Filename: previewFilename(doc, mime),
	}, nil
}

// decodeBase64 принимает стандартный и URL-безопасный алфавиты,
// с выравниванием и без.
func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("строка не является base64")
}

// inferMIME выводит тип содержимого из расширения имени файла,
// иначе по типу документа (сканы удостоверений и выписок чаще
// всего PDF).
func inferMIME(doc model.Document) string {
	switch strings.ToLower(path.Ext(doc.Nom)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}

	switch doc.Type {
	case model.DocIdentite, model.DocJustificatifDomicile, model.DocRIB:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func previewKind(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return PreviewImage
	case mime == "application/pdf":
		return PreviewPDF
	default:
		return PreviewDownload
	}
}

func previewFilename(doc model.Document, mime string) string {
	if doc.Nom != "" {
		return doc.Nom
	}
	name := strings.ToLower(doc.Type)
	if name == "" {
		name = "document"
	}
	switch {
	case mime == "application/pdf":
		return name + ".pdf"
	case strings.HasPrefix(mime, "image/"):
		return name + "." + strings.TrimPrefix(mime, "image/")
	}
	return name
}
