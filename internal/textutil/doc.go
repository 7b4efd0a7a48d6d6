// Package textutil derives filesystem-safe names from source paths.
package textutil
