package comic

import (
	"strings"

	"github.com/beevik/etree"
)

// CheckXML performs a local well-formedness check of a metadata document
// and returns a message describing the first problem, or "" when the text
// parses and has a <ComicInfo> root.
func CheckXML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "ComicInfo.xml is empty"
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return "ComicInfo.xml is not well-formed: " + err.Error()
	}

	root := doc.Root()
	if root == nil {
		return "ComicInfo.xml has no root element"
	}
	if root.Tag != "ComicInfo" {
		return "unexpected root element <" + root.Tag + ">, want <ComicInfo>"
	}
	return ""
}
