// Package markup converts rich note HTML into the restricted tag subset
// accepted by the Telegram Bot API, extracts image references from it, and
// checks the result against the channel length limits.
package markup
