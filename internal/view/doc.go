// Package view holds the HTML components of the knitting guide. Components
// are written in templ so handlers can render them as full pages or patch
// them into a page over Datastar SSE.
package view
