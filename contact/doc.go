// Package contact é o adapter HTTP do formulário de contato.
//
// Gate aplica as pré-condições de transporte (rota, método, origem, corpo) e
// Handler entrega o resto para application.Pipeline, traduzindo o Outcome para
// status + JSON.
package contact
