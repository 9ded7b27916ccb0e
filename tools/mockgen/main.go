package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the mock project configuration
type Config struct {
	OutputDir     string
	NumPackages   int
	NumRoots      int     // 每个包的继承树数量
	MaxDepth      int     // 继承树深度
	Width         int     // 每个类的子类数量
	NumInterfaces int     // 每个包的接口数量
	FieldDensity  float64 // 每个类平均引用几个其他类
	Seed          int64
}

// ClassInfo represents a generated struct
type ClassInfo struct {
	Name      string
	Parent    string
	Depth     int
	Root      int
	Interface int // index of the implemented interface, -1 for none
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.OutputDir, "o", "./mock-project", "输出目录")
	flag.IntVar(&cfg.NumPackages, "pkgs", 10, "包数量")
	flag.IntVar(&cfg.NumRoots, "roots", 5, "每个包的继承树数量")
	flag.IntVar(&cfg.MaxDepth, "depth", 4, "继承树深度")
	flag.IntVar(&cfg.Width, "width", 2, "每个类的子类数量")
	flag.IntVar(&cfg.NumInterfaces, "ifaces", 5, "每个包的接口数量")
	flag.Float64Var(&cfg.FieldDensity, "density", 2.0, "平均每个类引用几个其他类")
	flag.Int64Var(&cfg.Seed, "seed", 0, "随机种子 (0=当前时间)")
	flag.Parse()

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	fmt.Printf("正在生成 mock 项目...\n")
	fmt.Printf("  包数量: %d\n", cfg.NumPackages)
	fmt.Printf("  每包继承树: %d (深度 %d, 宽度 %d)\n", cfg.NumRoots, cfg.MaxDepth, cfg.Width)
	fmt.Printf("  每包类数: %d\n", classesPerPackage(&cfg))
	fmt.Printf("  每包接口数: %d\n", cfg.NumInterfaces)
	fmt.Printf("  引用密度: %.1f\n", cfg.FieldDensity)

	if err := generateProject(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✓ 项目生成完成: %s\n", cfg.OutputDir)
	fmt.Printf("\n下一步:\n")
	fmt.Printf("  cd %s\n", cfg.OutputDir)
	fmt.Printf("  cuml analyze . -o .cuml.db\n")
	fmt.Printf("  cuml render -A -o diagram.puml\n")
}

func classesPerPackage(cfg *Config) int {
	perTree, level := 0, 1
	for d := 0; d <= cfg.MaxDepth; d++ {
		perTree += level
		level *= cfg.Width
	}
	return perTree * cfg.NumRoots
}

func generateProject(cfg *Config) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}

	content := "module github.com/example/mockproject\n\ngo 1.21\n"
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, "go.mod"), []byte(content), 0644); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	for pkgIdx := 0; pkgIdx < cfg.NumPackages; pkgIdx++ {
		pkgName := fmt.Sprintf("pkg%02d", pkgIdx)
		if err := generatePackage(cfg, rng, pkgName); err != nil {
			return err
		}
		fmt.Printf("  ✓ 生成包 %s (%d/%d)\n", pkgName, pkgIdx+1, cfg.NumPackages)
	}

	return nil
}

// generateClasses lays out every inheritance tree breadth first
func generateClasses(cfg *Config, rng *rand.Rand) []*ClassInfo {
	var classes []*ClassInfo
	for r := 0; r < cfg.NumRoots; r++ {
		root := &ClassInfo{Name: fmt.Sprintf("Root%02d", r), Root: r, Interface: -1}
		if cfg.NumInterfaces > 0 {
			root.Interface = rng.Intn(cfg.NumInterfaces)
		}
		level := []*ClassInfo{root}
		classes = append(classes, root)
		for depth := 1; depth <= cfg.MaxDepth; depth++ {
			var next []*ClassInfo
			for _, parent := range level {
				for w := 0; w < cfg.Width; w++ {
					child := &ClassInfo{
						Name:      fmt.Sprintf("%s_%d", parent.Name, w),
						Parent:    parent.Name,
						Depth:     depth,
						Root:      r,
						Interface: -1,
					}
					next = append(next, child)
					classes = append(classes, child)
				}
			}
			level = next
		}
	}
	return classes
}

func generatePackage(cfg *Config, rng *rand.Rand, pkgName string) error {
	pkgDir := filepath.Join(cfg.OutputDir, pkgName)
	if err := os.MkdirAll(pkgDir, 0755); err != nil {
		return err
	}

	var ifaces strings.Builder
	fmt.Fprintf(&ifaces, "package %s\n", pkgName)
	for i := 0; i < cfg.NumInterfaces; i++ {
		fmt.Fprintf(&ifaces, "\n// Iface%02d is a generated interface\ntype Iface%02d interface {\n", i, i)
		fmt.Fprintf(&ifaces, "\tName%02d() string\n\tSize%02d() int\n}\n", i, i)
	}
	if err := os.WriteFile(filepath.Join(pkgDir, "interfaces.go"), []byte(ifaces.String()), 0644); err != nil {
		return err
	}

	classes := generateClasses(cfg, rng)
	byRoot := make([][]*ClassInfo, cfg.NumRoots)
	for _, c := range classes {
		byRoot[c.Root] = append(byRoot[c.Root], c)
	}

	for r, tree := range byRoot {
		var sb strings.Builder
		fmt.Fprintf(&sb, "package %s\n", pkgName)
		for _, c := range tree {
			writeClass(&sb, cfg, rng, c, classes)
		}
		name := filepath.Join(pkgDir, fmt.Sprintf("tree%02d.go", r))
		if err := os.WriteFile(name, []byte(sb.String()), 0644); err != nil {
			return err
		}
	}

	return nil
}

func writeClass(sb *strings.Builder, cfg *Config, rng *rand.Rand, c *ClassInfo, all []*ClassInfo) {
	fmt.Fprintf(sb, "\n// %s is a generated struct at depth %d\ntype %s struct {\n", c.Name, c.Depth, c.Name)
	if c.Parent != "" {
		fmt.Fprintf(sb, "\t%s\n", c.Parent)
	}
	fmt.Fprintf(sb, "\tID    int\n\tLabel string\n")

	// 引用同包中的其他类，一半是集合
	refs := int(cfg.FieldDensity)
	if rng.Float64() < cfg.FieldDensity-float64(refs) {
		refs++
	}
	for i := 0; i < refs; i++ {
		target := all[rng.Intn(len(all))]
		if target.Name == c.Name {
			continue
		}
		if rng.Intn(2) == 0 {
			fmt.Fprintf(sb, "\tRef%d *%s\n", i, target.Name)
		} else {
			fmt.Fprintf(sb, "\tRefs%d []*%s\n", i, target.Name)
		}
	}
	sb.WriteString("}\n")

	fmt.Fprintf(sb, "\n// New%s creates a %s\nfunc New%s(id int) *%s {\n\treturn &%s{ID: id}\n}\n",
		c.Name, c.Name, c.Name, c.Name, c.Name)

	if c.Interface >= 0 {
		fmt.Fprintf(sb, "\nfunc (c *%s) Name%02d() string { return c.Label }\n", c.Name, c.Interface)
		fmt.Fprintf(sb, "\nfunc (c *%s) Size%02d() int { return c.ID }\n", c.Name, c.Interface)
	}
}
