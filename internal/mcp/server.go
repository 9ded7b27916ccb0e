package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zheng/cuml/internal/display"
	"github.com/zheng/cuml/internal/format"
	"github.com/zheng/cuml/internal/hierarchy"
	"github.com/zheng/cuml/internal/impact"
	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/relation"
	"github.com/zheng/cuml/internal/render"
	"github.com/zheng/cuml/internal/storage"
)

// Server implements the MCP protocol for cuml
type Server struct {
	db     *storage.DB
	input  io.Reader
	output io.Writer
}

// NewServer creates a new MCP server on stdin/stdout
func NewServer(db *storage.DB) *Server {
	return &Server{
		db:     db,
		input:  os.Stdin,
		output: os.Stdout,
	}
}

// SetIO replaces the streams the server talks over
func (s *Server) SetIO(input io.Reader, output io.Writer) {
	s.input = input
	s.output = output
}

// JSON-RPC types
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MCP specific types
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Capabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Enum        []string    `json:"enum,omitempty"`
	Default     interface{} `json:"default,omitempty"`
}

type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ToolCallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Run starts the MCP server
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.input)
	// Increase buffer size for large messages
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.sendError(nil, -32700, "Parse error")
			continue
		}

		s.handleRequest(&req)
	}

	return scanner.Err()
}

func (s *Server) handleRequest(req *Request) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Notification, no response needed
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(req)
	default:
		s.sendError(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *Request) {
	result := InitializeResult{
		ProtocolVersion: "2024-11-05",
		ServerInfo: ServerInfo{
			Name:    "cuml",
			Version: "1.0.0",
		},
		Capabilities: Capabilities{
			Tools: &ToolsCapability{},
		},
	}
	s.sendResult(req.ID, result)
}

func (s *Server) handleToolsList(req *Request) {
	limit := Property{Type: "number", Description: "最多返回的条目数量，默认 50", Default: 50}
	tools := []Tool{
		{
			Name:        "diagram",
			Description: "生成项目类图 (PlantUML 或 Mermaid)，可选关系推断、类/接口过滤或聚焦某个类的继承层次",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"dialect":       {Type: "string", Description: "输出格式", Enum: []string{"plantuml", "mermaid"}, Default: "mermaid"},
					"relationships": {Type: "string", Description: "成员关系推断", Enum: []string{"none", "composition", "association"}, Default: "none"},
					"only":          {Type: "string", Description: "只输出类或接口", Enum: []string{"classes", "interfaces"}},
					"target":        {Type: "string", Description: "聚焦的类名，输出其祖先、接口和子类"},
				},
			},
		},
		{
			Name:        "hierarchy",
			Description: "查询类的继承层次：祖先链、实现的接口和所有子类",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"class": {Type: "string", Description: "类名（精确匹配）"},
				},
				Required: []string{"class"},
			},
		},
		{
			Name:        "impact",
			Description: "分析类型变更的影响范围：引用它的类型、子类、实现类和扩展接口",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"type": {Type: "string", Description: "类、接口或枚举名称（精确匹配）"},
				},
				Required: []string{"type"},
			},
		},
		{
			Name:        "search",
			Description: "按名称模糊搜索类型声明",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"pattern": {Type: "string", Description: "搜索模式"},
					"limit":   limit,
				},
				Required: []string{"pattern"},
			},
		},
		{
			Name:        "list",
			Description: "列出项目中的类型声明，支持按种类过滤和分页",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"kind":   {Type: "string", Description: "声明种类", Enum: []string{"class", "interface", "enum", "namespace"}},
					"limit":  limit,
					"offset": {Type: "number", Description: "分页偏移量", Default: 0},
				},
			},
		},
	}
	s.sendResult(req.ID, map[string]interface{}{"tools": tools})
}

func (s *Server) handleToolsCall(req *Request) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params")
		return
	}

	var result string
	var isError bool

	switch params.Name {
	case "diagram":
		result, isError = s.toolDiagram(params.Arguments)
	case "hierarchy":
		result, isError = s.toolHierarchy(params.Arguments)
	case "impact":
		result, isError = s.toolImpact(params.Arguments)
	case "search":
		result, isError = s.toolSearch(params.Arguments)
	case "list":
		result, isError = s.toolList(params.Arguments)
	default:
		result = fmt.Sprintf("Unknown tool: %s", params.Name)
		isError = true
	}

	s.sendResult(req.ID, ToolCallResult{
		Content: []ContentItem{{Type: "text", Text: result}},
		IsError: isError,
	})
}

func (s *Server) models() ([]*model.File, error) {
	stored, err := s.db.LoadFiles()
	if err != nil {
		return nil, err
	}
	return storage.Models(stored), nil
}

func (s *Server) toolDiagram(args map[string]interface{}) (string, bool) {
	dialectArg, _ := args["dialect"].(string)
	if dialectArg == "" {
		dialectArg = string(format.DialectMermaid)
	}
	dialect, err := format.ParseDialect(dialectArg)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	modeArg, _ := args["relationships"].(string)
	mode, err := relation.ParseMode(modeArg)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}

	opts := render.Options{Dialect: dialect, Relationships: mode}
	opts.TargetClass, _ = args["target"].(string)
	switch only, _ := args["only"].(string); only {
	case "":
	case "classes":
		opts.OnlyClasses = true
	case "interfaces":
		opts.OnlyInterfaces = true
	default:
		return fmt.Sprintf("错误：未知过滤条件 %q", only), true
	}

	files, err := s.models()
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	text, err := render.Render(files, opts)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}

	lang := "plantuml"
	if dialect == format.DialectMermaid {
		lang = "mermaid"
	}
	return fmt.Sprintf("```%s\n%s\n```", lang, text), false
}

func (s *Server) toolHierarchy(args map[string]interface{}) (string, bool) {
	class, ok := args["class"].(string)
	if !ok || class == "" {
		return "错误：需要提供类名", true
	}

	files, err := s.models()
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	entries, err := hierarchy.FocusEntries(files, class)
	if err != nil {
		return fmt.Sprintf("错误：%v\n\n💡 提示：如果代码最近有更新，请运行以下命令更新数据库：\n```bash\ncuml analyze -i\n```", err), true
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## 继承层次：%s\n\n```\n", class))
	sb.WriteString(display.FormatFocus(entries))
	sb.WriteString("```\n")

	tree := display.BuildTree(files, class)
	if len(tree) > 0 {
		maxWidth, maxDepth := 0, 0
		display.CalcTreeMaxWidth(tree, &maxWidth, 0, &maxDepth)
		sb.WriteString("\n### 子类树\n\n```\n" + class + "\n")
		sb.WriteString(display.FormatTree(tree, "", maxWidth, maxDepth, 0))
		sb.WriteString("```\n")
	}
	return sb.String(), false
}

func (s *Server) toolImpact(args map[string]interface{}) (string, bool) {
	typeName, ok := args["type"].(string)
	if !ok || typeName == "" {
		return "错误：需要提供类型名称", true
	}

	files, err := s.models()
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	report, err := impact.Analyze(files, typeName)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	return report.FormatMarkdown(), false
}

func limitArg(args map[string]interface{}) int {
	if l, ok := args["limit"].(float64); ok && l > 0 {
		return int(l)
	}
	return 50
}

func (s *Server) toolSearch(args map[string]interface{}) (string, bool) {
	pattern, ok := args["pattern"].(string)
	if !ok || pattern == "" {
		return "错误：需要提供搜索模式", true
	}
	limit := limitArg(args)

	decls, err := s.db.FindDeclarations(pattern)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}

	if len(decls) == 0 {
		return fmt.Sprintf("未找到匹配 '%s' 的类型\n\n💡 提示：如果代码最近有更新，请运行以下命令更新数据库：\n```bash\ncuml analyze -i\n```", pattern), false
	}

	total := len(decls)
	if len(decls) > limit {
		decls = decls[:limit]
	}

	result := fmt.Sprintf("## 搜索结果：%s\n\n找到 %d 个匹配", pattern, total)
	if total > limit {
		result += fmt.Sprintf("（显示前 %d 个）", limit)
	}
	result += "\n\n" + declarationTable(decls)
	return result, false
}

func (s *Server) toolList(args map[string]interface{}) (string, bool) {
	limit := limitArg(args)
	offset := 0
	if o, ok := args["offset"].(float64); ok && o > 0 {
		offset = int(o)
	}
	kind, _ := args["kind"].(string)

	stats, err := s.db.GetStats()
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	total := stats.Declarations
	if kind != "" {
		total = stats.ByKind[model.Kind(kind)]
	}
	if total == 0 {
		return "项目中没有类型声明", false
	}
	if int64(offset) >= total {
		return fmt.Sprintf("偏移量 %d 超出范围（共 %d 个类型）", offset, total), false
	}

	decls, err := s.db.ListDeclarations(model.Kind(kind), limit, offset)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}

	result := fmt.Sprintf("## 类型列表\n\n共 %d 个类型", total)
	if offset > 0 || int64(len(decls)) < total-int64(offset) {
		result += fmt.Sprintf("（显示 %d-%d）", offset+1, offset+len(decls))
	}
	result += "\n\n" + declarationTable(decls)
	return result, false
}

func declarationTable(decls []*storage.Declaration) string {
	var sb strings.Builder
	sb.WriteString("| 类型 | 种类 | 文件 |\n")
	sb.WriteString("|------|------|------|\n")
	for _, d := range decls {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", d.Name, d.Kind, d.Path))
	}
	return sb.String()
}

func (s *Server) sendResult(id interface{}, result interface{}) {
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	s.send(resp)
}

func (s *Server) sendError(id interface{}, code int, message string) {
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
	s.send(resp)
}

func (s *Server) send(resp Response) {
	data, _ := json.Marshal(resp)
	fmt.Fprintln(s.output, string(data))
}
