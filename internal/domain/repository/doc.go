// Package repository define las interfaces de persistencia del dominio.
//
// Los drivers concretos viven en internal/store (postgres, memory). Los
// services dependen solo de estas interfaces; nunca de un driver.
package repository
