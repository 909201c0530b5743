package traceindex

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/fatalSec/DaliVM/internal/dex"
)

var dexEntryPattern = regexp.MustCompile(`^classes\d*\.dex$`)

// Index unifies every classes*.dex container pulled from one APK into the
// single global method-index space the class loader and analysis packages
// address methods by, and builds a cross-reference call graph over all of
// it. Ported from original_source/dalvik_vm/dex_parser.py's DexParser
// (_read_all_dex_from_apk/_build_unified_index), the project's own multidex
// entry point.
type Index struct {
	Containers    []*Container
	methodOffsets []int // cumulative method_ids count per container, for global<->local resolution
	callGraph     graph.Graph[string, string]
	callSites     []CallSite
}

// CallSite is one invoke-family instruction found while indexing: the
// calling method, the instruction's pc (in code units), and the method it
// targets (by global trace name, since the callee may live in another
// container than the caller).
type CallSite struct {
	Caller  string
	Callee  string
	PC      uint32
	Opcode  uint8
	RegArgs []uint16
}

// Load reads every classes*.dex entry out of an APK (a plain zip archive)
// and builds a unified Index, matching DexParser's multidex discovery.
func Load(apkPath string) (*Index, error) {
	zr, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil, fmt.Errorf("traceindex: open apk: %w", err)
	}
	defer zr.Close()

	var names []string
	blobs := map[string][]byte{}
	for _, f := range zr.File {
		if !dexEntryPattern.MatchString(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("traceindex: open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("traceindex: read %s: %w", f.Name, err)
		}
		names = append(names, f.Name)
		blobs[f.Name] = data
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("traceindex: no classes*.dex entries found in %s", apkPath)
	}
	sort.Strings(names)

	idx := &Index{}
	for _, name := range names {
		c, err := Parse(name, blobs[name])
		if err != nil {
			return nil, err
		}
		idx.addContainer(c)
	}
	idx.buildCallGraph()
	return idx, nil
}

// LoadSingle builds an Index out of one already-extracted DEX blob, useful
// for tests and for single-dex targets that were unpacked ahead of time.
func LoadSingle(name string, data []byte) (*Index, error) {
	c, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	idx := &Index{}
	idx.addContainer(c)
	idx.buildCallGraph()
	return idx, nil
}

func (idx *Index) addContainer(c *Container) {
	idx.methodOffsets = append(idx.methodOffsets, totalMethods(idx.Containers))
	idx.Containers = append(idx.Containers, c)
}

func totalMethods(cs []*Container) int {
	n := 0
	for _, c := range cs {
		n += c.MethodCount()
	}
	return n
}

// FindMethod looks up a method by its "LClass;->name" trace form across
// every container, returning the first container that defines a body for
// it. DEX allows several method_ids rows to share a (class, name) with
// different descriptors; FindMethod returns no MethodRef or Proto, and such
// overloads resolve to the first matching row (Container.GetMethodCode).
func (idx *Index) FindMethod(class, name string) (*Container, *CodeItem, bool) {
	for _, c := range idx.Containers {
		if code, ok := c.GetMethodCode(class, name); ok {
			return c, code, true
		}
	}
	return nil, nil, false
}

// buildCallGraph scans every defined method body for invoke-family
// instructions and records a directed caller->callee edge, built once up
// front and exposed through CallGraph (original_source/dalvik_vm/
// dependency_analyzer.py's analyze_method instead recurses over raw
// instruction text). internal/analysis does not query this graph; its
// DependencyAnalyzer keeps its own graph of the walk it performs.
func (idx *Index) buildCallGraph() {
	idx.callGraph = graph.New(graph.StringHash, graph.Directed())
	for _, c := range idx.Containers {
		for _, dm := range c.IterMethods() {
			caller := dm.Method.FullName()
			_ = idx.callGraph.AddVertex(caller)
			if dm.Code == nil {
				continue
			}
			idx.scanCallSites(c, caller, dm.Code)
		}
	}
}

// scanCallSites walks one method's code units fetch-decode style (the same
// stepping internal/interp's loop uses) looking for invoke-family opcodes,
// resolving the target method_idx operand against the owning container's
// method table.
func (idx *Index) scanCallSites(c *Container, caller string, code *CodeItem) {
	insns := code.Code
	pos := uint32(0)
	for pos < uint32(len(insns)) {
		if dex.IsPayload(insns, pos) {
			size := dex.PayloadSize(insns, pos)
			if size == 0 {
				break
			}
			pos += size
			continue
		}
		opcode := uint8(insns[pos] & 0xFF)
		fam := dex.OpcodeFamily(opcode)
		next, args := dex.Decode(insns, pos, opcode)
		switch fam {
		case dex.FamInvokeVirtual, dex.FamInvokeSuper, dex.FamInvokeDirect,
			dex.FamInvokeStatic, dex.FamInvokeInterface:
			if m, ok := c.Method(int(args.A)); ok {
				callee := m.FullName()
				_ = idx.callGraph.AddVertex(callee)
				_ = idx.callGraph.AddEdge(caller, callee)
				idx.callSites = append(idx.callSites, CallSite{
					Caller: caller, Callee: callee, PC: pos, Opcode: opcode, RegArgs: args.RegList,
				})
			}
		}
		if next <= pos {
			break // malformed/truncated trailing instruction; stop rather than loop
		}
		pos = next
	}
}

// AllCallSites returns every invoke-family instruction discovered while
// indexing, across all containers.
func (idx *Index) AllCallSites() []CallSite { return idx.callSites }

// CallGraph exposes the caller->callee graph built while indexing, for
// callers that want a transitive callee walk.
func (idx *Index) CallGraph() graph.Graph[string, string] { return idx.callGraph }
