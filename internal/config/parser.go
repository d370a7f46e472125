package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Parser errors.
var (
	ErrInvalidYAML   = errors.New("invalid YAML format")
	ErrInvalidNumber = errors.New("invalid number format")
	ErrFileNotFound  = errors.New("configuration file not found")
)

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// LoadConfig reads the file at path and parses it with ParseConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig substitutes environment variables in data, parses it and
// merges the result over DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	data = substituteEnvVars(data)

	root, err := buildTree(strings.Split(string(data), "\n"))
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := applyConfig(root, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default}.
func substituteEnvVars(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		content := string(match[2 : len(match)-1])
		if name, def, ok := strings.Cut(content, ":-"); ok {
			if val := os.Getenv(name); val != "" {
				return []byte(val)
			}
			return []byte(def)
		}
		return []byte(os.Getenv(content))
	})
}

type yamlNode struct {
	key      string
	value    string
	line     int
	indent   int
	children []*yamlNode
}

func buildTree(lines []string) (*yamlNode, error) {
	root := &yamlNode{indent: -1}
	stack := []*yamlNode{root}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: line %d: expected key: value", ErrInvalidYAML, i+1)
		}
		n := &yamlNode{
			key:    strings.TrimSpace(key),
			value:  unquote(stripComment(strings.TrimSpace(value))),
			line:   i + 1,
			indent: countIndent(line),
		}

		for len(stack) > 1 && stack[len(stack)-1].indent >= n.indent {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, n)
		stack = append(stack, n)
	}
	return root, nil
}

func countIndent(line string) int {
	count := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			count++
		case '\t':
			count += 2
		default:
			return count
		}
	}
	return count
}

// stripComment drops a trailing " # comment" from an unquoted value.
func stripComment(s string) string {
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'") {
		return s
	}
	if idx := strings.Index(s, " #"); idx != -1 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func applyConfig(root *yamlNode, cfg *Config) error {
	for _, n := range root.children {
		var err error
		switch n.key {
		case "storage":
			err = applyStorageConfig(n, &cfg.Storage)
		case "logging":
			applyLogConfig(n, &cfg.Logging)
		case "trx":
			err = applyTrxConfig(n, &cfg.Trx)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func applyStorageConfig(n *yamlNode, cfg *StorageConfig) error {
	for _, child := range n.children {
		if child.value == "" {
			continue
		}
		switch child.key {
		case "dataDir":
			cfg.DataDir = child.value
		case "cacheSize":
			val, err := parseInt(child)
			if err != nil {
				return err
			}
			cfg.CacheSize = int(val)
		case "prefetchWorkers":
			val, err := parseInt(child)
			if err != nil {
				return err
			}
			cfg.PrefetchWorkers = int(val)
		}
	}
	return nil
}

func applyLogConfig(n *yamlNode, cfg *LogConfig) {
	for _, child := range n.children {
		if child.value == "" {
			continue
		}
		switch child.key {
		case "level":
			cfg.Level = child.value
		case "format":
			cfg.Format = child.value
		case "output":
			cfg.Output = child.value
		}
	}
}

func applyTrxConfig(n *yamlNode, cfg *TrxConfig) error {
	for _, child := range n.children {
		if child.key == "nodeNumber" && child.value != "" {
			val, err := parseInt(child)
			if err != nil {
				return err
			}
			cfg.NodeNumber = val
		}
	}
	return nil
}

func parseInt(n *yamlNode) (int64, error) {
	val, err := strconv.ParseInt(n.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %s: %q", ErrInvalidNumber, n.line, n.key, n.value)
	}
	return val, nil
}
