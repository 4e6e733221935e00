// Command plannerctl is an interactive REPL over the same demo domain
// cmd/plannerd serves: it reads one line at a time from stdin, parses
// fact/goal expressions with internal/exprtext, and drives
// internal/planner's external operations directly in-process (no HTTP
// round trip). The teacher pack has no interactive CLI of its own — the
// bufio.NewScanner(os.Stdin) read loop is grounded on the broader
// retrieval pack's haricheung-agentic-shell/cmd/agsh, while bootstrap
// logging follows the teacher's own zerolog setup.
package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"contextualplanner/internal/demo"
	"contextualplanner/internal/exprtext"
	"contextualplanner/internal/historical"
	"contextualplanner/internal/ontology"
	"contextualplanner/internal/plannerconfig"
	"contextualplanner/internal/planner"
	"contextualplanner/internal/plog"
	"contextualplanner/internal/problem"
)

func main() {
	cfg := plannerconfig.Load()
	planner.SetLimits(cfg.MaxPlanSteps, cfg.MaxActionRepeats, cfg.EnableOptimisation)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	hook := plog.NewZerologHook(cfg.LogPretty)

	built, err := demo.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build demo domain")
	}
	prob, err := built.NewProblem(3, 3)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build demo problem")
	}
	globalHistorical := historical.New()
	sym := symbolsFor(built, prob)

	fmt.Println("plannerctl: 3 trees, target wood 3. Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !dispatch(line, prob, globalHistorical, sym, hook) {
			break
		}
	}
}

func dispatch(line string, prob *problem.Problem, globalHistorical *historical.Historical, sym *exprtext.Symbols, hook plog.Hook) bool {
	fields := strings.SplitN(line, " ", 2)
	cmd := fields[0]
	var rest string
	if len(fields) == 2 {
		rest = strings.TrimSpace(fields[1])
	}

	switch cmd {
	case "help":
		printHelp()
	case "quit", "exit":
		return false
	case "facts":
		printFacts(prob)
	case "goals":
		printGoals(prob)
	case "assert":
		runAssert(prob, sym, rest)
	case "retract":
		runRetract(prob, sym, rest)
	case "next":
		runNext(prob, globalHistorical)
	case "plan":
		runPlan(prob, globalHistorical, hook)
	case "done":
		runDone(prob, globalHistorical, rest)
	default:
		fmt.Printf("unknown command %q, type 'help'\n", cmd)
	}
	return true
}

func printHelp() {
	fmt.Println(`commands:
  facts                 list every known fact
  goals                 list the goal stack by priority
  assert <fact-expr>    add a fact, e.g. chopped(tree_a) or !chopped(tree_a)
  retract <fact-expr>   remove a fact
  next                  show the recommended next action, if any
  plan                  compute a full plan for every goal
  done <action_id>      apply the recommended action if its id matches
  quit                  exit`)
}

func printFacts(prob *problem.Problem) {
	facts := prob.World().FactsMapping()
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Println(" ", facts[k].String())
	}
}

func printGoals(prob *problem.Problem) {
	snap := prob.Goals().Snapshot()
	priorities := make([]int, 0, len(snap))
	for pri := range snap {
		priorities = append(priorities, pri)
	}
	sort.Ints(priorities)
	for _, pri := range priorities {
		for _, g := range snap[pri] {
			fmt.Printf("  [%d] %s: %s\n", pri, g.ID, g.String())
		}
	}
}

func runAssert(prob *problem.Problem, sym *exprtext.Symbols, expr string) {
	fo, err := exprtext.ParseFactOptional(expr, sym)
	if err != nil {
		fmt.Println("parse error:", err)
		return
	}
	if fo.IsNegated {
		if err := prob.RemoveFact(fo.Fact); err != nil {
			fmt.Println("error:", err)
		}
		return
	}
	if err := prob.AddFact(fo.Fact); err != nil {
		fmt.Println("error:", err)
	}
}

func runRetract(prob *problem.Problem, sym *exprtext.Symbols, expr string) {
	f, err := exprtext.ParseFact(expr, sym)
	if err != nil {
		fmt.Println("parse error:", err)
		return
	}
	if err := prob.RemoveFact(f); err != nil {
		fmt.Println("error:", err)
	}
}

func runNext(prob *problem.Problem, globalHistorical *historical.Historical) {
	inv, found := planner.LookForAnActionToDo(prob, globalHistorical)
	if !found {
		fmt.Println("no action available")
		return
	}
	fmt.Println(" ", inv.String())
}

func runPlan(prob *problem.Problem, globalHistorical *historical.Historical, hook plog.Hook) {
	plan, cost := planner.PlanForEveryGoals(prob, globalHistorical)
	if !cost.Success {
		hook.PlanningFailed("all", fmt.Errorf("could not satisfy every goal"))
	}
	fmt.Println(" ", planner.PlanToStr(plan, "; "))
	fmt.Printf("  success=%v actions=%d satisfied=%d unsatisfied=%d\n",
		cost.Success, cost.NbActions, cost.NbGoalsSatisfied, cost.NbGoalsNotSatisfied)
}

func runDone(prob *problem.Problem, globalHistorical *historical.Historical, actionID string) {
	if actionID == "" {
		fmt.Println("usage: done <action_id>")
		return
	}
	inv, found := planner.LookForAnActionToDo(prob, globalHistorical)
	if !found || inv.ActionID != actionID {
		fmt.Println("that is not the currently recommended action")
		return
	}
	if err := planner.NotifyActionDone(prob, *inv); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("applied", actionID)
}

// symbolsFor flattens the problem's known entities into the name->value
// table exprtext needs to resolve fact arguments typed from the console;
// plannerctl never parses parameterised expressions, so Parameters stays
// empty.
func symbolsFor(built *demo.Built, prob *problem.Problem) *exprtext.Symbols {
	entities := map[string]*ontology.Entity{}
	for _, list := range prob.World().KnownEntities() {
		for _, e := range list {
			entities[e.Name] = e
		}
	}
	return &exprtext.Symbols{
		Ontology:   built.Ontology,
		Parameters: map[string]*ontology.Parameter{},
		Entities:   entities,
	}
}
