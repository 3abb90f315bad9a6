// Package polyfit fits polynomial regressions and chooses their degree by
// cross validation.
//
//	p, err := polyfit.Fit(x, y, 2) // p[0] + p[1]*x + p[2]*x^2
//	yhat := polyfit.Eval(p, x)
//
//	sel, err := polyfit.SelectDegree(x, y, 3, 20, nil)
//	b, err := polyfit.Bagged(x, y, sel.Best, 10, 0.8, nil)
package polyfit
