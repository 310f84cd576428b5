package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/models"
)

// MenuSection is one category block of the printable menu
type MenuSection struct {
	Title string
	Items []models.MenuItemView
}

var menuSections = []struct {
	category string
	title    string
}{
	{models.CategoryBreakfast, "Завтрак"},
	{models.CategoryLunch, "Обед"},
	{models.CategoryDinner, "Ужин"},
}

// MenuPDFService renders the printable menu and converts it to PDF
type MenuPDFService struct {
	catalog      MenuCatalog
	templatePath string
	baseURL      string // Base URL the render page is served from (e.g., "http://localhost:8080")
	chromePath   string
	logger       *logrus.Logger
}

// NewMenuPDFService creates a new MenuPDFService
func NewMenuPDFService(catalog MenuCatalog, templatePath, baseURL, chromePath string, logger *logrus.Logger) *MenuPDFService {
	return &MenuPDFService{
		catalog:      catalog,
		templatePath: templatePath,
		baseURL:      baseURL,
		chromePath:   chromePath,
		logger:       logger,
	}
}

// detectChromePath returns the configured Chrome path when it exists, then
// falls back to common installation paths
func detectChromePath(configured string) string {
	paths := []string{
		configured,
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Sections groups the available menu by category in menu order. Empty
// categories are left out.
func (s *MenuPDFService) Sections() []MenuSection {
	var sections []MenuSection
	for _, sec := range menuSections {
		items := s.catalog.Available(sec.category)
		if len(items) == 0 {
			continue
		}
		views := make([]models.MenuItemView, 0, len(items))
		for _, item := range items {
			views = append(views, View(item))
		}
		sections = append(sections, MenuSection{Title: sec.title, Items: views})
	}
	return sections
}

// RenderMenuHTML renders the printable menu template
func (s *MenuPDFService) RenderMenuHTML() (string, error) {
	tmpl, err := template.ParseFiles(s.templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	data := struct {
		Sections []MenuSection
		Date     string
	}{
		Sections: s.Sections(),
		Date:     time.Now().Format("02.01.2006"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// GeneratePDF prints the rendered menu page to an A4 PDF using headless Chrome
func (s *MenuPDFService) GeneratePDF(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
	)
	if chromePath := detectChromePath(s.chromePath); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	renderURL := s.baseURL + "/api/menu/print"
	s.logger.WithField("url", renderURL).Info("GeneratePDF: rendering menu")

	var pdfBuf []byte
	err := chromedp.Run(chromedpCtx,
		chromedp.Navigate(renderURL),
		chromedp.WaitReady("body"),
		// Wait for fonts and images to load
		chromedp.Evaluate(`
			Promise.all([
				document.fonts.ready,
				...Array.from(document.images).map(img => img.complete ? null : new Promise(r => {
					img.onload = img.onerror = r;
					setTimeout(r, 5000);
				}))
			])
		`, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 8.27" x 11.69"
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.4).
				WithMarginBottom(0.4).
				WithMarginLeft(0.4).
				WithMarginRight(0.4).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	s.logger.WithField("bytes", len(pdfBuf)).Info("GeneratePDF: menu printed")
	return pdfBuf, nil
}
