package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// 1) Two guard ifs in a row with the same return can be merged with ||
	//      if a { return err }
	//      if b { return err }
	//    => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	// Same with continue inside loops
	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// 2) Nested fors are not always wrong but worth a second look
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// markers keeps the stream and patch markers in one place each.
func markers(m dsl.Matcher) {
	m.Match(`"</html>"`, `"</think>"`).
		Where(!m.File().PkgPath.Matches(`internal/domain/stream$`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`use stream.DocumentEndMarker / stream.ThinkEndMarker instead of the literal`)

	m.Match(`"<<<<<<< SEARCH"`, `"======="`, `">>>>>>> REPLACE"`).
		Where(!m.File().PkgPath.Matches(`internal/domain/patch$`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`use the patch package marker constants instead of the literal`)
}

// logging keeps library packages on slog.
func logging(m dsl.Matcher) {
	m.Match(`fmt.Println($*_)`, `fmt.Printf($*_)`, `log.Printf($*_)`, `log.Println($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`log through the injected *slog.Logger instead of printing`)
}
