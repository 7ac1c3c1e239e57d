package database

import (
	"strings"
)

// ConstructDatabaseURL joins a server URL and a database name.
// sslmode=disable is appended unless the URL already names an sslmode.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, _ := strings.Cut(strings.TrimRight(baseURL, "/"), "?")
	base = strings.TrimRight(base, "/")

	params := make([]string, 0, 2)
	if query != "" {
		params = append(params, query)
	}
	if !strings.Contains(query, "sslmode=") {
		params = append(params, "sslmode=disable")
	}

	return base + "/" + databaseName + "?" + strings.Join(params, "&")
}
