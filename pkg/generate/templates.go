package generate

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/demoforge/demoforge/pkg/plan"
)

// File is one generated source file of a scaffolded project
type File struct {
	Path    string
	Content string
}

// Scaffold renders the deterministic project skeleton for the plan's
// platform, with the plan's spans wired into an instrumentation bootstrap
// file. LLM-generated screens and services are layered on top by callers.
func Scaffold(p *plan.Plan) ([]File, error) {
	set, ok := platformTemplates[p.Platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", p.Platform)
	}

	files := make([]File, 0, len(set))
	for path, tmpl := range set {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, p); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", path, err)
		}
		files = append(files, File{Path: path, Content: buf.String()})
	}
	return files, nil
}

var platformTemplates = map[plan.Platform]map[string]*template.Template{
	plan.PlatformWeb: {
		"package.json":           mustParse("web_package", webPackageJSON),
		"src/instrumentation.js": mustParse("web_instrumentation", webInstrumentation),
		"src/index.html":         mustParse("web_index", webIndex),
	},
	plan.PlatformMobile: {
		"package.json":           mustParse("mobile_package", mobilePackageJSON),
		"src/instrumentation.js": mustParse("mobile_instrumentation", webInstrumentation),
		"App.js":                 mustParse("mobile_app", mobileApp),
	},
	plan.PlatformPython: {
		"requirements.txt":   mustParse("python_requirements", pythonRequirements),
		"instrumentation.py": mustParse("python_instrumentation", pythonInstrumentation),
		"app.py":             mustParse("python_app", pythonApp),
	},
}

func mustParse(name, content string) *template.Template {
	return template.Must(template.New(name).Parse(content))
}

const webPackageJSON = `{
  "name": "{{.AppName}}",
  "version": "0.1.0",
  "private": true,
  "scripts": {
    "start": "vite",
    "build": "vite build"
  }
}
`

const webIndex = `<!doctype html>
<html>
  <head>
    <title>{{.AppName}}</title>
    <script type="module" src="./instrumentation.js"></script>
  </head>
  <body>
    <div id="root"></div>
  </body>
</html>
`

const webInstrumentation = `// Instrumentation bootstrap for {{.AppName}}.
// Each span below is started around the matching operation.
export const spans = {
{{- range .Spans}}
  "{{.Name}}": {
    operation: "{{.Operation}}",
    layer: "{{.Layer}}",
    description: {{printf "%q" .Description}},
    attributes: [{{range $key, $desc := .Attributes}}"{{$key}}", {{end}}],
    piiKeys: [{{range .PIIKeys}}"{{.}}", {{end}}]
  },
{{- end}}
};

export function startSpan(name, attributes) {
  const spec = spans[name];
  if (!spec) {
    return { end() {} };
  }
  const redacted = {};
  for (const key of Object.keys(attributes || {})) {
    redacted[key] = spec.piiKeys.includes(key) ? "[REDACTED]" : attributes[key];
  }
  const started = performance.now();
  return {
    end() {
      console.debug("span", name, performance.now() - started, redacted);
    },
  };
}
`

const mobilePackageJSON = `{
  "name": "{{.AppName}}",
  "version": "0.1.0",
  "main": "App.js",
  "dependencies": {
    "expo": "~51.0.0",
    "react": "18.2.0",
    "react-native": "0.74.0"
  }
}
`

const mobileApp = `import React from "react";
import { View, Text } from "react-native";
import { startSpan } from "./src/instrumentation";

export default function App() {
  React.useEffect(() => {
    const span = startSpan("app.launch", {});
    return () => span.end();
  }, []);
  return (
    <View>
      <Text>{{.AppName}}</Text>
    </View>
  );
}
`

const pythonRequirements = `flask>=3.0
opentelemetry-api>=1.25
opentelemetry-sdk>=1.25
`

const pythonInstrumentation = `"""Instrumentation bootstrap for {{.AppName}}."""
from contextlib import contextmanager
from opentelemetry import trace

tracer = trace.get_tracer("{{.AppName}}")

SPANS = {
{{- range .Spans}}
    "{{.Name}}": {
        "operation": "{{.Operation}}",
        "layer": "{{.Layer}}",
        "pii_keys": [{{range .PIIKeys}}"{{.}}", {{end}}],
    },
{{- end}}
}


@contextmanager
def start_span(name, attributes=None):
    spec = SPANS.get(name, {})
    pii_keys = spec.get("pii_keys", [])
    safe = {
        key: "[REDACTED]" if key in pii_keys else value
        for key, value in (attributes or {}).items()
    }
    with tracer.start_as_current_span(name, attributes=safe) as span:
        yield span
`

const pythonApp = `"""{{.AppName}} demo backend."""
from flask import Flask
from instrumentation import start_span

app = Flask("{{.AppName}}")


@app.get("/health")
def health():
    with start_span("http.health_check"):
        return {"status": "ok"}
`
