// Package errors collects the problems found while building a site so one
// broken document does not abort the whole build.
package errors

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"
)

// Build stages a BuildError can come from.
const (
	StageFetch  = "fetch"
	StageRender = "render"
	StageFeed   = "feed"
	StageWrite  = "write"
	StageReveal = "reveal"
)

// BuildError represents a problem with one page of the build
type BuildError struct {
	Page      string
	Locale    string
	Stage     string
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
	Err       error
}

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (be *BuildError) Error() string {
	page := be.Page
	if be.Locale != "" {
		page += " [" + be.Locale + "]"
	}
	msg := be.Message
	if msg == "" && be.Err != nil {
		msg = be.Err.Error()
	}
	return fmt.Sprintf("%s: %s: %s: %s", page, be.Stage, be.Severity, msg)
}

// Unwrap returns the underlying cause.
func (be *BuildError) Unwrap() error {
	return be.Err
}

// ErrorCollector collects and manages build errors and general errors
type ErrorCollector struct {
	buildErrors []BuildError
	errors      []error
	mutex       sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		buildErrors: make([]BuildError, 0),
		errors:      make([]error, 0),
	}
}

// Add adds a build error to the collector
func (ec *ErrorCollector) Add(err BuildError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if err.Message == "" && err.Err != nil {
		err.Message = err.Err.Error()
	}
	ec.buildErrors = append(ec.buildErrors, err)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetErrors returns all collected build errors
func (ec *ErrorCollector) GetErrors() []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]BuildError, len(ec.buildErrors))
	copy(result, ec.buildErrors)
	return result
}

// GetAllErrors returns all collected errors (build and general)
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	allErrors := make([]error, 0, len(ec.buildErrors)+len(ec.errors))
	for i := range ec.buildErrors {
		buildErr := ec.buildErrors[i]
		allErrors = append(allErrors, &buildErr)
	}
	allErrors = append(allErrors, ec.errors...)

	return allErrors
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.buildErrors) > 0 || len(ec.errors) > 0
}

// Failed reports whether anything at error severity or above, or any general
// error, was collected. Warnings alone do not fail a build.
func (ec *ErrorCollector) Failed() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) > 0 {
		return true
	}
	for _, err := range ec.buildErrors {
		if err.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.buildErrors = ec.buildErrors[:0]
	ec.errors = ec.errors[:0]
}

// GetErrorsByPage returns errors for a specific output page
func (ec *ErrorCollector) GetErrorsByPage(page string) []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var pageErrors []BuildError
	for _, err := range ec.buildErrors {
		if err.Page == page {
			pageErrors = append(pageErrors, err)
		}
	}
	return pageErrors
}

// GetErrorsByStage returns errors raised in one build stage
func (ec *ErrorCollector) GetErrorsByStage(stage string) []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var stageErrors []BuildError
	for _, err := range ec.buildErrors {
		if err.Stage == stage {
			stageErrors = append(stageErrors, err)
		}
	}
	return stageErrors
}

// Summary renders a short plain text report, one line per problem, sorted by
// page so the output is stable across concurrent builds.
func (ec *ErrorCollector) Summary() string {
	ec.mutex.RLock()
	buildErrors := make([]BuildError, len(ec.buildErrors))
	copy(buildErrors, ec.buildErrors)
	general := make([]error, len(ec.errors))
	copy(general, ec.errors)
	ec.mutex.RUnlock()

	if len(buildErrors) == 0 && len(general) == 0 {
		return ""
	}

	sort.SliceStable(buildErrors, func(i, j int) bool {
		if buildErrors[i].Page != buildErrors[j].Page {
			return buildErrors[i].Page < buildErrors[j].Page
		}
		return buildErrors[i].Locale < buildErrors[j].Locale
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%d problem(s):\n", len(buildErrors)+len(general))
	for i := range buildErrors {
		fmt.Fprintf(&b, "  %s\n", buildErrors[i].Error())
	}
	for _, err := range general {
		fmt.Fprintf(&b, "  %s\n", err)
	}
	return b.String()
}

// ErrorOverlay generates HTML for the dev server's error overlay
func (ec *ErrorCollector) ErrorOverlay() string {
	if !ec.HasErrors() {
		return ""
	}

	var b strings.Builder
	b.WriteString(`
<div id="lumen-error-overlay" style="
	position: fixed;
	inset: 0;
	background: rgba(0, 0, 0, 0.85);
	color: white;
	font-family: 'Monaco', 'Menlo', monospace;
	font-size: 14px;
	z-index: 9999;
	padding: 20px;
	box-sizing: border-box;
	overflow: auto;
">
	<div style="max-width: 1000px; margin: 0 auto;">
		<div style="display: flex; justify-content: space-between; align-items: center; margin-bottom: 20px;">
			<h2 style="margin: 0; color: #ff6b6b;">Build Errors</h2>
			<button onclick="document.getElementById('lumen-error-overlay').remove()"
					style="background: none; border: 1px solid #ccc; color: white; padding: 5px 10px; cursor: pointer;">
				Close
			</button>
		</div>
		<div>`)

	ec.mutex.RLock()
	for _, err := range ec.buildErrors {
		severityColor := "#ff6b6b"
		switch err.Severity {
		case ErrorSeverityWarning:
			severityColor = "#feca57"
		case ErrorSeverityInfo:
			severityColor = "#48dbfb"
		}

		fmt.Fprintf(&b, `
			<div style="background: #2d3748; padding: 15px; margin-bottom: 15px; border-radius: 4px; border-left: 4px solid %s;">
				<div style="display: flex; justify-content: space-between; margin-bottom: 10px;">
					<span style="color: %s; font-weight: bold;">%s</span>
					<span style="color: #a0aec0; font-size: 12px;">%s</span>
				</div>
				<div style="color: #e2e8f0; margin-bottom: 5px;"><strong>%s</strong></div>
				<div style="color: #a0aec0; font-size: 12px;">%s %s</div>
			</div>`,
			severityColor, severityColor, err.Severity.String(), err.Timestamp.Format("15:04:05"),
			html.EscapeString(err.Message), html.EscapeString(err.Page), html.EscapeString(err.Stage))
	}
	for _, err := range ec.errors {
		fmt.Fprintf(&b, `
			<div style="background: #2d3748; padding: 15px; margin-bottom: 15px; border-radius: 4px; border-left: 4px solid #ff6b6b;">
				<strong>%s</strong>
			</div>`, html.EscapeString(err.Error()))
	}
	ec.mutex.RUnlock()

	b.WriteString(`
		</div>
	</div>
</div>`)

	return b.String()
}
