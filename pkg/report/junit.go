package report

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/uiharness/pkg/core"
)

// JUnit XML schema types, as consumed by Jenkins, GitLab and GitHub Actions.

// JUnitTestSuites is the document root.
type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Errors   int              `xml:"errors,attr"`
	Skipped  int              `xml:"skipped,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite groups the scenarios of one run.
type JUnitTestSuite struct {
	Name       string          `xml:"name,attr"`
	ID         string          `xml:"id,attr,omitempty"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       string          `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr,omitempty"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	Cases      []JUnitTestCase `xml:"testcase"`
}

// JUnitProperty is a name/value pair on a suite.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// JUnitTestCase is one scenario.
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	File      string        `xml:"file,attr,omitempty"`
	Time      string        `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitFailure `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure describes a failed or errored case.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a case that did not run.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// BuildJUnit converts a report index into JUnit suites. Failed scenarios
// become <failure>, errored ones <error>.
func BuildJUnit(index *Index) JUnitTestSuites {
	suite := JUnitTestSuite{
		Name:     "uiharness",
		ID:       index.RunID,
		Tests:    index.Summary.Total,
		Failures: index.Summary.Failed,
		Errors:   index.Summary.Errored,
		Skipped:  index.Summary.Skipped,
		Time:     seconds(index.Duration),
		Properties: []JUnitProperty{
			{Name: "app", Value: index.App.Path},
			{Name: "server", Value: index.Server.URL},
			{Name: "labels", Value: index.Runner.Labels},
		},
	}
	if !index.StartTime.IsZero() {
		suite.Timestamp = index.StartTime.UTC().Format(time.RFC3339)
	}

	for _, f := range index.Flows {
		tc := JUnitTestCase{
			Name:      f.ID,
			ClassName: className(f),
			File:      f.SourceFile,
			Time:      seconds(f.Duration),
		}

		switch f.Status {
		case core.StatusFailed:
			tc.Failure = failure(f)
		case core.StatusErrored:
			tc.Error = failure(f)
		case core.StatusSkipped:
			tc.Skipped = &JUnitSkipped{}
			if f.Error != nil {
				tc.Skipped.Message = f.Error.Message
			}
		}

		var out []string
		for _, a := range f.Artifacts {
			out = append(out, fmt.Sprintf("[[ATTACHMENT|%s]]", a.Path))
		}
		tc.SystemOut = strings.Join(out, "\n")

		suite.Cases = append(suite.Cases, tc)
	}

	return JUnitTestSuites{
		Name:     "uiharness",
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Errors:   suite.Errors,
		Skipped:  suite.Skipped,
		Time:     suite.Time,
		Suites:   []JUnitTestSuite{suite},
	}
}

// WriteJUnit writes the JUnit XML for index to path.
func WriteJUnit(path string, index *Index) error {
	data, err := xml.MarshalIndent(BuildJUnit(index), "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, append([]byte(xml.Header), append(data, '\n')...))
}

func className(f FlowEntry) string {
	if len(f.Tags) > 0 {
		return "uiharness." + f.Tags[0]
	}
	return "uiharness"
}

func failure(f FlowEntry) *JUnitFailure {
	jf := &JUnitFailure{}
	if f.Error != nil {
		jf.Message = f.Error.Message
		jf.Type = f.Error.Code
	}

	var b strings.Builder
	for _, c := range f.Steps {
		fmt.Fprintf(&b, "[%s] %s", c.Status, c.Label)
		if c.Error != "" {
			fmt.Fprintf(&b, ": %s", c.Error)
		}
		b.WriteString("\n")
	}
	jf.Body = b.String()
	return jf
}

func seconds(ms int64) string {
	return fmt.Sprintf("%.3f", float64(ms)/1000)
}
