// Package identity derives stable row ids so repeated imports and writes land
// on the same records.
package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const namespace = "portfolio"

// key joins parts under the portfolio namespace. Each id family uses its own
// scope so an entry key can never equal a translation key.
func key(scope string, parts ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	b.WriteByte(':')
	b.WriteString(scope)
	for _, part := range parts {
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(part))
	}
	return b.String()
}

// UUID hashes key with SHA-256 through hashid. A blank key yields uuid.Nil.
func UUID(key string) uuid.UUID {
	key = strings.TrimSpace(key)
	if key == "" {
		return uuid.Nil
	}
	id, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err == nil && id != uuid.Nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

// EntryUUID identifies an entry by kind and slug, case-insensitively.
func EntryUUID(kind, slug string) uuid.UUID {
	return UUID(key("entry", strings.ToLower(kind), strings.ToLower(slug)))
}

// TranslationUUID identifies the translation row of one entry locale.
func TranslationUUID(entryID uuid.UUID, locale string) uuid.UUID {
	return UUID(key("translation", entryID.String(), strings.ToLower(locale)))
}

// TagUUID identifies a tag row by entry, position and value.
func TagUUID(entryID uuid.UUID, value string, position int) uuid.UUID {
	return UUID(key("tag", entryID.String(), strconv.Itoa(position), value))
}
