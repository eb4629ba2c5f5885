package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/glyphtrace/glyphtrace/pkg/config"
	"github.com/glyphtrace/glyphtrace/pkg/scan"
)

const Version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cfg := loadConfig()
		if len(os.Args) > 2 {
			cfg.Port = os.Args[2]
		}
		runServer(cfg)
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: glyphtrace scan <text>")
			os.Exit(1)
		}
		runCLIScan(strings.Join(os.Args[2:], " "))
	case "checks":
		for _, name := range scan.CheckNames() {
			fmt.Println(name)
		}
	case "version":
		fmt.Printf("glyphtrace v%s\n", Version)
		fmt.Println("Hidden-signal scanner for text")
	default:
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	if path := os.Getenv("GLYPHTRACE_CONFIG_FILE"); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			log.Fatalf("[STARTUP] settings file: %v", err)
		}
		return cfg
	}
	return config.NewDefaultConfig()
}

func printUsage() {
	fmt.Printf("glyphtrace v%s - hidden-signal scanner for text\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  glyphtrace serve [port]   Start HTTP server (default: 8090)")
	fmt.Println("  glyphtrace scan <text>    Scan text from the command line")
	fmt.Println("  glyphtrace checks         List available checks")
	fmt.Println("  glyphtrace version        Show version")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  glyphtrace serve 8080")
	fmt.Println("  glyphtrace scan \"review this: aGlkZGVuIGluc3RydWN0aW9ucyBmb2xsb3cu\"")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  GLYPHTRACE_PORT         HTTP listen port")
	fmt.Println("  GLYPHTRACE_CHECKS       Comma-separated default check list")
	fmt.Println("  GLYPHTRACE_AUDIT_LOG    JSONL audit file (empty disables)")
	fmt.Println("  GLYPHTRACE_REDIS_ADDR   Result cache address (empty disables)")
	fmt.Println("  GLYPHTRACE_CONFIG_FILE  YAML settings file layered over env")
}

func runCLIScan(text string) {
	cfg := loadConfig()
	analyzer := scan.NewAnalyzer(nil)

	resp := analyzer.Analyze(scan.AnalysisRequest{
		Text:     text,
		Selected: cfg.DefaultChecks,
		Settings: scan.Settings{MaskURLs: &cfg.MaskURLs},
	})

	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(out))
}
