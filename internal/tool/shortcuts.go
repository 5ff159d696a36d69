package tool

import "strings"

// shortcuts maps backslash command names to the text typed in their place.
var shortcuts = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"varepsilon": "ɛ", "zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ",
	"pi": "π", "varpi": "ϖ", "rho": "ρ", "varrho": "ϱ", "sigma": "σ",
	"varsigma": "ς", "tau": "τ", "upsilon": "υ", "phi": "ϕ", "varphi": "φ",
	"chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ",
	"Omega": "Ω",

	"leftarrow": "←", "rightarrow": "→", "uparrow": "↑", "downarrow": "↓",
	"leftrightarrow": "↔", "Leftarrow": "⇐", "Rightarrow": "⇒",
	"Leftrightarrow": "⇔", "to": "→", "gets": "←", "mapsto": "↦",
	"implies": "⟹", "iff": "⟺",

	"forall": "∀", "exists": "∃", "nexists": "∄", "neg": "¬", "land": "∧",
	"lor": "∨", "in": "∈", "notin": "∉", "ni": "∋", "subset": "⊂",
	"subseteq": "⊆", "supset": "⊃", "supseteq": "⊇", "cap": "∩", "cup": "∪",
	"emptyset": "∅", "setminus": "∖",

	"le": "≤", "leq": "≤", "ge": "≥", "geq": "≥", "ne": "≠", "neq": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "simeq": "≃", "cong": "≅",
	"propto": "∝", "ll": "≪", "gg": "≫", "pm": "±", "mp": "∓",
	"times": "×", "div": "÷", "cdot": "·", "circ": "∘", "bullet": "•",
	"ast": "∗", "star": "⋆", "oplus": "⊕", "otimes": "⊗",

	"infty": "∞", "partial": "∂", "nabla": "∇", "sum": "∑", "prod": "∏",
	"int": "∫", "iint": "∬", "oint": "∮", "sqrt": "√", "angle": "∠",
	"perp": "⊥", "parallel": "∥", "degree": "°", "prime": "′",
	"ldots": "…", "cdots": "⋯", "vdots": "⋮", "ddots": "⋱", "hbar": "ℏ",
	"ell": "ℓ", "Re": "ℜ", "Im": "ℑ", "aleph": "ℵ",
	"NN": "ℕ", "ZZ": "ℤ", "QQ": "ℚ", "RR": "ℝ", "CC": "ℂ",
	"checkmark": "✓", "dagger": "†", "euro": "€", "copyright": "©",
}

// isPrefix reports whether name begins some longer command, in which case
// it is only expanded once a non-letter follows it.
func isPrefix(name string) bool {
	for k := range shortcuts {
		if len(k) > len(name) && strings.HasPrefix(k, name) {
			return true
		}
	}
	return false
}
