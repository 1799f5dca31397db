package generate

type templateData struct {
	Name         string
	Requirements string
	Generated    string
}

// projectTemplates maps project type to its file templates. These are fixed
// text substitutions; there is no grammar or build system behind them.
var projectTemplates = map[string]map[string]string{
	"static-site": {
		"index.html": staticIndexTemplate,
		"styles.css": staticStylesTemplate,
		"app.js":     staticAppTemplate,
		"README.md":  readmeTemplate,
	},
	"api": {
		"main.go":   apiMainTemplate,
		"README.md": readmeTemplate,
	},
	"cli": {
		"main.go":   cliMainTemplate,
		"README.md": readmeTemplate,
	},
}

const readmeTemplate = `# {{.Name}}

Generated by steward on {{.Generated}}.

## Requirements

{{.Requirements}}
`

const staticIndexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Name}}</title>
  <link rel="stylesheet" href="styles.css">
</head>
<body>
  <main>
    <h1>{{.Name}}</h1>
    <p id="status">Loading…</p>
  </main>
  <script src="app.js"></script>
</body>
</html>
`

const staticStylesTemplate = `body {
  font-family: system-ui, sans-serif;
  margin: 0;
  background: #fafafa;
  color: #222;
}

main {
  max-width: 40rem;
  margin: 4rem auto;
  padding: 0 1rem;
}
`

const staticAppTemplate = `// {{.Name}}, generated {{.Generated}}
document.addEventListener("DOMContentLoaded", function () {
  var status = document.getElementById("status");
  status.textContent = "{{.Name}} is ready.";
});
`

const apiMainTemplate = `// {{.Name}}, generated {{.Generated}}
package main

import (
	"encoding/json"
	"log"
	"net/http"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "{{.Name}}"})
	})
	log.Fatal(http.ListenAndServe(":8080", mux))
}
`

const cliMainTemplate = `// {{.Name}}, generated {{.Generated}}
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	name := flag.String("name", "world", "Name to greet")
	flag.Parse()
	if _, err := fmt.Fprintf(os.Stdout, "%s: hello, %s\n", "{{.Name}}", *name); err != nil {
		os.Exit(1)
	}
}
`
