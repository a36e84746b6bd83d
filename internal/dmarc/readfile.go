package dmarc

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/emersion/go-message/mail"

	// needed to handle other charsets too
	_ "github.com/emersion/go-message/charset"

	"github.com/firefart/dmarcreport/internal/helper"
)

const xsTag = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://dmarc.org/dmarc-xml/0.1">`

// ErrNoReport is returned when a mail message carries no report attachment.
var ErrNoReport = errors.New("no report attachment found")

func readGZ(content []byte) ([]byte, error) {
	buf := bytes.NewBuffer(content)
	gz, err := gzip.NewReader(buf)
	if err != nil {
		return nil, fmt.Errorf("could not gzip read: %w", err)
	}
	defer gz.Close()

	xmlContent, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("could not read: %w", err)
	}
	return xmlContent, nil
}

func readZIP(content []byte) ([]byte, string, error) {
	buf := bytes.NewReader(content)
	r, err := zip.NewReader(buf, int64(len(content)))
	if err != nil {
		return nil, "", fmt.Errorf("could not open zip: %w", err)
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		x, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("could not open file %s inside zip: %w", f.Name, err)
		}
		xmlContent, err := io.ReadAll(x)
		x.Close()
		if err != nil {
			return nil, "", fmt.Errorf("could not read file %s inside zip: %w", f.Name, err)
		}
		// only use first file in the zip file
		return xmlContent, f.FileInfo().Name(), nil
	}
	return nil, "", errors.New("no valid file found within zip archive")
}

// readEML extracts the first report attachment of a saved mail message.
func readEML(content []byte) (string, []byte, error) {
	m, err := mail.CreateReader(bytes.NewReader(content))
	if err != nil {
		return "", nil, fmt.Errorf("could not create reader: %w", err)
	}
	defer m.Close()

	for {
		p, err := m.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", nil, fmt.Errorf("could not get next part: %w", err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return "", nil, fmt.Errorf("could not read inlineheader body: %w", err)
			}
			// sometimes the attachment is inlined so we check the magic bytes
			kind := helper.DetectArchive(b)
			if kind == helper.ArchiveNone {
				continue
			}
			_, params, err := h.ContentDisposition()
			filename := params["filename"]
			if err != nil || filename == "" {
				filename = "inline." + extensionFor(kind)
			}
			return filename, b, nil
		case *mail.AttachmentHeader:
			filename, err := h.Filename()
			if err != nil {
				return "", nil, fmt.Errorf("could not get attachment filename: %w", err)
			}
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return "", nil, fmt.Errorf("could not read attachment: %w", err)
			}
			return filename, b, nil
		}
	}
	return "", nil, ErrNoReport
}

func extensionFor(kind helper.ArchiveType) string {
	switch kind {
	case helper.ArchiveGzip:
		return "xml.gz"
	case helper.ArchiveZip:
		return "zip"
	default:
		return "xml"
	}
}

// ReadFile decodes a report file and returns the name of the contained XML
// document together with its parsed form. Saved mail messages (.eml) are
// unpacked first. Archives are recognized by their magic bytes so misnamed
// files still work; everything else is parsed as plain XML.
func ReadFile(filename string, content []byte) (string, *XMLReport, error) {
	if strings.EqualFold(filepath.Ext(filename), ".eml") {
		attachment, body, err := readEML(content)
		if err != nil {
			return "", nil, err
		}
		filename, content = attachment, body
	}

	var xmlContent []byte
	var xmlFilename string
	var err error
	switch helper.DetectArchive(content) {
	case helper.ArchiveGzip:
		xmlContent, err = readGZ(content)
		if err != nil {
			return "", nil, err
		}
		xmlFilename = strings.TrimSuffix(filename, filepath.Ext(filename))
	case helper.ArchiveZip:
		xmlContent, xmlFilename, err = readZIP(content)
		if err != nil {
			return "", nil, err
		}
	default:
		xmlContent = content
		xmlFilename = filename
	}
	// some xmls contain invalid XML by adding an unclosed xs tag
	xmlContent = bytes.ReplaceAll(xmlContent, []byte(xsTag), []byte(""))

	// parse XML into object
	var xmlDocument XMLReport
	if err := xml.Unmarshal(xmlContent, &xmlDocument); err != nil {
		return "", nil, fmt.Errorf("error on xml unmarshal: %w", err)
	}

	return xmlFilename, &xmlDocument, nil
}
