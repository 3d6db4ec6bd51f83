package server

import "github.com/go-chi/chi/v5"

func (s *Server) routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.With(s.withDeadline).Get("/health", s.health)

		r.Route("/saved-queries", func(r chi.Router) {
			r.Use(s.withDeadline)
			r.Get("/", s.listSavedQueries)
			r.Post("/", s.saveQuery)
			r.Get("/{id}", s.loadSavedQuery)
			r.Delete("/{id}", s.deleteSavedQuery)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.withConn, s.withDeadline)
			r.Get("/databases", s.listDatabases)
			r.Post("/databases", s.createDatabase)
		})

		r.Route("/databases/{db}", func(r chi.Router) {
			r.Use(s.withConn, s.selectDatabase)

			// Exports stream past the query timeout.
			r.Post("/query/export", s.exportQuery)

			r.Group(func(r chi.Router) {
				r.Use(s.withDeadline)

				r.Delete("/", s.dropDatabase)

				r.Get("/tables", s.listTables)
				r.Post("/tables", s.createTable)

				r.Get("/views", s.listViews)
				r.Post("/views/fix-definers", s.fixAllViewDefiners)
				r.Get("/views/{view}/source", s.viewSource)
				r.Post("/views/{view}/fix-definer", s.fixViewDefiner)

				r.Post("/query", s.executeQuery)
			})

			r.Route("/tables/{table}", func(r chi.Router) {
				r.Get("/records/export", s.exportRecords)

				r.Group(func(r chi.Router) {
					r.Use(s.withDeadline)

					r.Get("/", s.describeTable)
					r.Delete("/", s.dropTable)
					r.Post("/rename", s.renameTable)

					r.Get("/fk-candidates", s.foreignKeyCandidates)
					r.Get("/foreign-keys", s.listForeignKeys)
					r.Post("/foreign-keys", s.addForeignKey)
					r.Delete("/foreign-keys/{name}", s.dropForeignKey)

					r.Post("/columns", s.addColumn)
					r.Put("/columns/{column}", s.modifyColumn)
					r.Delete("/columns/{column}", s.dropColumn)

					r.Get("/records", s.listRecords)
					r.Post("/records", s.insertRecord)
					r.Get("/records/{key}/{value}", s.getRecord)
					r.Put("/records/{key}/{value}", s.updateRecord)
					r.Delete("/records/{key}/{value}", s.deleteRecord)
				})
			})
		})
	})
}
