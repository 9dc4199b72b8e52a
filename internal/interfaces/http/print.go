package http

import (
	"time"

	"github.com/garyjia/engagement-tracker/internal/application/service"
)

const printTemplateName = "document.html"

// printTemplate lays a rendered document out for the browser's print dialog.
// Bodies are plain text, so line breaks are preserved rather than interpreted.
const printTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} - {{.Reference}}</title>
<style>
  @page { size: A4; margin: 20mm; }
  body { font-family: Georgia, "Times New Roman", serif; font-size: 12pt; color: #000; }
  header { border-bottom: 1px solid #444; margin-bottom: 16px; }
  header h1 { font-size: 16pt; margin: 0 0 4px 0; }
  header p { margin: 0; font-size: 9pt; color: #444; }
  .body { white-space: pre-wrap; line-height: 1.5; }
  @media print { header p { display: none; } }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p>{{.Reference}} &middot; generated {{.Generated}}</p>
</header>
<div class="body">{{.Body}}</div>
</body>
</html>
`

type printView struct {
	Title     string
	Reference string
	Generated string
	Body      string
}

func newPrintView(doc *service.RenderedDocument) printView {
	title := doc.DisplayName
	if title == "" {
		title = doc.Template
	}
	return printView{
		Title:     title,
		Reference: doc.Reference,
		Generated: time.Now().Format(service.DocumentDateLayout),
		Body:      doc.Body,
	}
}
