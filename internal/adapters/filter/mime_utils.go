package filter

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/phishnet/phishbowl/internal/core"
)

// emailFromMessage builds an email from a parsed RFC 5322 message. The
// envelope sender takes precedence over the From header when present.
func emailFromMessage(msg *mail.Message, envelopeSender string) (*core.Email, error) {
	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, err
	}

	email := &core.Email{Body: body}

	sender := envelopeSender
	if sender == "" {
		sender = msg.Header.Get("From")
	}
	if sender != "" {
		email.Sender = &sender
	}

	if rawSubject := msg.Header.Get("Subject"); rawSubject != "" {
		subject, err := decodeEncodedHeader(rawSubject)
		if err != nil {
			subject = rawSubject
		}
		email.Subject = &subject
	}

	return email, nil
}

// decodeEncodedHeader decodes RFC 2047 encoded words in a header value.
func decodeEncodedHeader(value string) (string, error) {
	dec := new(mime.WordDecoder)
	return dec.DecodeHeader(value)
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages, it collects the text/plain parts.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	// If it's not a multipart message, just return the body
	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	mr := multipart.NewReader(msg.Body, boundary)

	var textContent bytes.Buffer
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Return whatever text we collected before the malformed part
			if textContent.Len() > 0 {
				return textContent.String(), nil
			}
			bodyBytes, err := io.ReadAll(msg.Body)
			if err != nil {
				return "", err
			}
			return string(bodyBytes), nil
		}

		partContentType := part.Header.Get("Content-Type")
		if strings.Contains(strings.ToLower(partContentType), "text/plain") {
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue // Skip this part if we can't read it
			}
			textContent.Write(partBytes)
			textContent.WriteString("\n")
		}
		// Skip other parts (attachments, nested multiparts, etc.)
	}

	if textContent.Len() > 0 {
		return textContent.String(), nil
	}

	return "[No text content found in multipart message]", nil
}
