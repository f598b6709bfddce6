package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gregLibert/thai-id-reader/pkg/session"
	"github.com/gregLibert/thai-id-reader/pkg/thaiid"
	"gopkg.in/yaml.v2"
)

// consoleReporter prints session outcomes on stdout.
type consoleReporter struct {
	out    io.Writer
	format string
}

func (c *consoleReporter) Inserted(s *session.Session) {
	if c.format != formatText {
		return
	}
	fmt.Fprintf(c.out, "\n%s\n", strings.Repeat("=", 65))
	fmt.Fprintf(c.out, "[+] ตรวจพบการเสียบบัตร (%s)... กำลังอ่านข้อมูล\n", s.Reader)
}

func (c *consoleReporter) Report(s *session.Session, rec thaiid.Record) {
	if c.format == formatYAML {
		doc := struct {
			Reader string        `yaml:"reader"`
			Record thaiid.Record `yaml:"record"`
		}{s.Reader, rec}

		out, err := yaml.Marshal(doc)
		if err != nil {
			c.Failure(s, err)
			return
		}
		fmt.Fprintf(c.out, "---\n%s", out)
		return
	}

	fmt.Fprintln(c.out, rec.Describe())
	fmt.Fprintln(c.out, "✅ อ่านข้อมูลสำเร็จ")
	fmt.Fprintln(c.out, strings.Repeat("=", 65))
}

func (c *consoleReporter) Failure(s *session.Session, err error) {
	if c.format == formatYAML {
		out, _ := yaml.Marshal(map[string]string{"reader": s.Reader, "error": err.Error()})
		fmt.Fprintf(c.out, "---\n%s", out)
		return
	}
	fmt.Fprintf(c.out, "⚠️ Error: %v\n", err)
}

func (c *consoleReporter) Removed(reader string) {
	if c.format != formatText {
		return
	}
	fmt.Fprintf(c.out, "\n[-] บัตรถูกดึงออก (%s)\n", reader)
}
